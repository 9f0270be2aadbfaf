package firebase

var MaxAge = maxAge
