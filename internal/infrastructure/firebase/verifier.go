// Package firebase verifica ID tokens de Firebase Auth (personal de los salones) contra
// los certificados públicos de Google.
package firebase

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

const (
	// DefaultCertsURL certificados x509 de securetoken, indexados por kid.
	DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	issuerPrefix    = "https://securetoken.google.com/"

	defaultLeeway   = time.Minute
	defaultCertsTTL = time.Hour
	// minRefetch limita las descargas provocadas por kids desconocidos.
	minRefetch = time.Minute
)

var errCertsUnavailable = errors.New("firebase: certificados no disponibles")

// Config del verificador.
type Config struct {
	ProjectID string
	CertsURL  string
	Leeway    time.Duration
	Now       func() time.Time
	// Client permite inyectar un resty configurado (tests, proxies).
	Client *resty.Client
}

// Claims payload del ID token.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	AuthTime      int64  `json:"auth_time,omitempty"`
}

// Verifier implementa auth.IdentityVerifier.
type Verifier struct {
	cfg    Config
	client *resty.Client
	log    *logger.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

var _ auth.IdentityVerifier = (*Verifier)(nil)

// NewVerifier construye el verificador. ProjectID es obligatorio: fija aud e iss.
func NewVerifier(cfg Config, log *logger.Logger) (*Verifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("firebase: project id requerido")
	}
	if cfg.CertsURL == "" {
		cfg.CertsURL = DefaultCertsURL
	}
	if cfg.Leeway <= 0 {
		cfg.Leeway = defaultLeeway
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	client := cfg.Client
	if client == nil {
		client = resty.New().
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(200*time.Millisecond).
			SetRetryMaxWaitTime(2*time.Second).
			SetHeader("Accept", "application/json")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Verifier{cfg: cfg, client: client, log: log.Component("firebase_verifier")}, nil
}

// VerifyIDToken valida firma RS256, exp/iat con margen, aud = project id e iss.
func (v *Verifier) VerifyIDToken(ctx context.Context, rawToken string) (*auth.IdentityClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims,
		func(t *jwt.Token) (any, error) {
			// Un alg ajeno es INVALID_TOKEN, no INVALID_SIGNATURE.
			if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
				return nil, domain.NewGateError(domain.CodeInvalidToken, "algoritmo no soportado")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, domain.NewGateError(domain.CodeInvalidToken, "token sin kid")
			}
			return v.keyFor(ctx, kid)
		},
		jwt.WithAudience(v.cfg.ProjectID),
		jwt.WithIssuer(issuerPrefix+v.cfg.ProjectID),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithTimeFunc(v.cfg.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}

	if claims.Subject == "" || len(claims.Subject) > 128 {
		return nil, domain.NewGateError(domain.CodeInvalidToken, "sub inválido")
	}
	out := &auth.IdentityClaims{Subject: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func mapParseError(err error) error {
	if errors.Is(err, errCertsUnavailable) {
		return err
	}
	var ge *domain.GateError
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return domain.ErrInvalidIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrInvalidSignature
	default:
		return domain.WrapGateError(domain.CodeInvalidToken, "token inválido", err)
	}
}

func (v *Verifier) keyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := v.cfg.Now()

	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := now.Before(v.expiresAt)
	recent := now.Sub(v.fetchedAt) < minRefetch
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if fresh && recent {
		return nil, domain.NewGateError(domain.CodeInvalidToken, "kid desconocido")
	}

	if err := v.refresh(ctx, now); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, domain.NewGateError(domain.CodeInvalidToken, "kid desconocido")
}

// refresh descarga los certificados y respeta Cache-Control: max-age.
func (v *Verifier) refresh(ctx context.Context, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	// Otra goroutine pudo refrescar mientras esperábamos el lock.
	if now.Before(v.expiresAt) && now.Sub(v.fetchedAt) < minRefetch {
		return nil
	}

	resp, err := v.client.R().SetContext(ctx).Get(v.cfg.CertsURL)
	if err != nil {
		return fmt.Errorf("%w: %v", errCertsUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", errCertsUnavailable, resp.StatusCode())
	}

	var pems map[string]string
	if err := json.Unmarshal(resp.Body(), &pems); err != nil {
		return fmt.Errorf("%w: %v", errCertsUnavailable, err)
	}
	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, p := range pems {
		key, err := parseCertificateKey(p)
		if err != nil {
			v.log.Warn().Err(err).Str("kid", kid).Msg("certificado ignorado")
			continue
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: respuesta sin certificados válidos", errCertsUnavailable)
	}

	v.keys = keys
	v.fetchedAt = now
	v.expiresAt = now.Add(maxAge(resp.Header().Get("Cache-Control"), defaultCertsTTL))
	v.log.Debug().Int("keys", len(keys)).Time("expires_at", v.expiresAt).Msg("certificados de firebase actualizados")
	return nil
}

func parseCertificateKey(p string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(p))
	if block == nil {
		return nil, errors.New("pem inválido")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("el certificado no es RSA")
	}
	return key, nil
}

// maxAge extrae max-age de Cache-Control; def si no está o no es válido.
func maxAge(header string, def time.Duration) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.Atoi(strings.Trim(value, `"`))
		if err != nil || secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	return def
}
