package auth

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
	pkgjwt "github.com/jhoicas/Reservas-api/pkg/jwt"
	"github.com/jhoicas/Reservas-api/pkg/logger"
	"github.com/jhoicas/Reservas-api/pkg/secretbox"
)

// DefaultLINEIssuer emisor de los ID tokens de LIFF.
const DefaultLINEIssuer = "https://access.line.me"

// CustomerClaims payload del ID token de la mini-app.
type CustomerClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// CustomerIdentity identidad verificada; el handler la usa para hacer upsert del cliente.
type CustomerIdentity struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	// Verified false solo en el bypass de desarrollo sin secreto configurado.
	Verified bool `json:"verified"`
}

// Decrypter descifra secretos guardados con secretbox.
type Decrypter interface {
	Decrypt(token string) (string, error)
}

// CustomerTokenConfig AllowUnverified se inyecta explícitamente: el bypass de desarrollo
// no depende de leer configuración global en cada llamada y está cerrado por defecto.
type CustomerTokenConfig struct {
	EnvChannelSecret string
	EnvChannelID     string
	Issuer           string
	AllowUnverified  bool // solo development/test; el valor cero exige secreto
	Now              func() time.Time
}

// CustomerTokenVerifier verifica el token de la mini-app de principio a fin (HS256 propio).
type CustomerTokenVerifier struct {
	tenants repository.TenantRepository
	box     Decrypter
	cfg     CustomerTokenConfig
	log     *logger.Logger
}

// NewCustomerTokenVerifier construye el verificador.
func NewCustomerTokenVerifier(tenants repository.TenantRepository, box Decrypter, cfg CustomerTokenConfig, log *logger.Logger) *CustomerTokenVerifier {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultLINEIssuer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CustomerTokenVerifier{tenants: tenants, box: box, cfg: cfg, log: log.Component("customer_token")}
}

// Verify comprueba firma, exp, iss y aud (si hay canal configurado) con el secreto del tenant.
func (v *CustomerTokenVerifier) Verify(ctx context.Context, rawToken, tenantID string) (*CustomerIdentity, error) {
	if rawToken == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	seg, err := pkgjwt.Split(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	claims, err := decodeClaims(seg)
	if err != nil {
		return nil, domain.WrapGateError(domain.CodeInvalidToken, "token inválido", err)
	}

	secret, channelID, source, err := v.signingMaterial(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if source == SecretNone {
		if !v.cfg.AllowUnverified {
			return nil, domain.ErrNotConfigured
		}
		v.log.Warn().
			Str("tenant_id", tenantID).
			Msg("sin secreto de canal LINE: token de la mini-app aceptado SIN verificar (solo desarrollo)")
		if claims.Subject == "" {
			return nil, domain.ErrInvalidToken
		}
		return &CustomerIdentity{Subject: claims.Subject, Name: claims.Name, Picture: claims.Picture}, nil
	}

	if err := v.checkHeader(seg); err != nil {
		return nil, err
	}
	expected, err := pkgjwt.SignatureHS256(seg.SigningInput(), secret)
	if err != nil {
		return nil, fmt.Errorf("calcular firma: %w", err)
	}
	if !hmac.Equal([]byte(expected), []byte(seg.Signature)) {
		return nil, domain.ErrInvalidSignature
	}

	if claims.ExpiresAt == nil {
		return nil, domain.NewGateError(domain.CodeInvalidToken, "token sin exp")
	}
	if !v.cfg.Now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	if claims.Issuer != v.cfg.Issuer {
		return nil, domain.ErrInvalidIssuer
	}
	if channelID != "" && !slices.Contains(claims.Audience, channelID) {
		return nil, domain.ErrChannelMismatch
	}
	if claims.Subject == "" {
		return nil, domain.NewGateError(domain.CodeInvalidToken, "token sin sub")
	}

	return &CustomerIdentity{Subject: claims.Subject, Name: claims.Name, Picture: claims.Picture, Verified: true}, nil
}

// signingMaterial lee el tenant de la base (no de la caché) para no usar un secreto rotado.
func (v *CustomerTokenVerifier) signingMaterial(ctx context.Context, tenantID string) (secret, channelID string, source SecretSource, err error) {
	tenantSecret, tenantChannel := "", ""
	if tenantID != "" {
		t, err := v.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return "", "", SecretNone, fmt.Errorf("leer secreto del tenant: %w", err)
		}
		if t == nil {
			return "", "", SecretNone, domain.ErrTenantNotFound
		}
		tenantChannel = t.LineChannelID
		if t.LineChannelSecretEnc != "" {
			if v.box == nil {
				return "", "", SecretNone, fmt.Errorf("descifrar secreto de canal: sin ENCRYPTION_KEY")
			}
			plain, err := v.box.Decrypt(t.LineChannelSecretEnc)
			if err != nil {
				if errors.Is(err, secretbox.ErrInvalidCiphertext) {
					return "", "", SecretNone, domain.WrapGateError(domain.CodeInvalidCiphertext, "secreto de canal corrupto", err)
				}
				return "", "", SecretNone, fmt.Errorf("descifrar secreto de canal: %w", err)
			}
			tenantSecret = plain
		}
	}
	secret, source = ResolveSigningSecret(tenantSecret, v.cfg.EnvChannelSecret)
	return secret, ResolveChannelID(tenantChannel, v.cfg.EnvChannelID), source, nil
}

func (v *CustomerTokenVerifier) checkHeader(seg pkgjwt.Segments) error {
	raw, err := pkgjwt.DecodeSegment(seg.Header)
	if err != nil {
		return domain.WrapGateError(domain.CodeInvalidToken, "cabecera inválida", err)
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return domain.WrapGateError(domain.CodeInvalidToken, "cabecera inválida", err)
	}
	if header.Alg != jwt.SigningMethodHS256.Alg() {
		return domain.NewGateError(domain.CodeInvalidToken, "algoritmo no soportado")
	}
	return nil
}

// decodeClaims decodifica el payload sin confiar todavía en él.
func decodeClaims(seg pkgjwt.Segments) (*CustomerClaims, error) {
	raw, err := pkgjwt.DecodeSegment(seg.Payload)
	if err != nil {
		return nil, err
	}
	var claims CustomerClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
