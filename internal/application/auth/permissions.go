package auth

import "github.com/jhoicas/Reservas-api/internal/domain/entity"

// Claves de permiso que entiende el dashboard.
const (
	PermManageReservations = "manage_reservations"
	PermManageCustomers    = "manage_customers"
	PermManageMenus        = "manage_menus"
	PermManageStaff        = "manage_staff"
	PermViewAnalytics      = "view_analytics"
	PermManageSettings     = "manage_settings"
)

type permissionRule struct {
	key    string
	legacy []string // nombres usados por registros antiguos, en orden de preferencia
	def    bool
}

// permissionTable orden estable; los valores por defecto aplican cuando el registro no dice nada.
var permissionTable = []permissionRule{
	{key: PermManageReservations, legacy: []string{"canManageReservations", "reservations"}, def: true},
	{key: PermManageCustomers, legacy: []string{"canManageCustomers", "customers"}, def: true},
	{key: PermManageMenus, legacy: []string{"canManageMenus", "menus"}, def: false},
	{key: PermManageStaff, legacy: []string{"canManagePractitioners", "practitioners"}, def: false},
	{key: PermViewAnalytics, legacy: []string{"canViewAnalytics", "analytics"}, def: false},
	{key: PermManageSettings, legacy: []string{"canManageSettings", "settings"}, def: false},
}

// PermissionKeys todas las claves conocidas.
func PermissionKeys() []string {
	keys := make([]string, len(permissionTable))
	for i, r := range permissionTable {
		keys[i] = r.key
	}
	return keys
}

// EffectivePermissions calcula el mapa completo. El owner recibe todo sin mirar los flags.
func EffectivePermissions(role string, flags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(permissionTable))
	for _, rule := range permissionTable {
		if role == entity.RoleOwner {
			out[rule.key] = true
			continue
		}
		out[rule.key] = lookupFlag(flags, rule)
	}
	return out
}

func lookupFlag(flags map[string]bool, rule permissionRule) bool {
	if v, ok := flags[rule.key]; ok {
		return v
	}
	for _, name := range rule.legacy {
		if v, ok := flags[name]; ok {
			return v
		}
	}
	return rule.def
}

// Allowed claves desconocidas se deniegan.
func Allowed(perms map[string]bool, key string) bool {
	return perms[key]
}
