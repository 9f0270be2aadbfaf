// Package invalidation propaga las invalidaciones de la caché de identidad entre instancias
// vía Redis pub/sub. Sin Redis configurado actúa solo sobre la caché local.
package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// DefaultChannel canal de pub/sub compartido por todas las instancias.
const DefaultChannel = "reservas:identity-cache:invalidate"

// Kind tipo de invalidación.
type Kind string

const (
	KindTenant         Kind = "tenant"
	KindStoreCode      Kind = "store_code"
	KindStoresOfTenant Kind = "stores_of_tenant"
	KindFlush          Kind = "flush"
)

// ErrInvalidMessage mensaje del canal que no se puede aplicar.
var ErrInvalidMessage = errors.New("invalidation: mensaje inválido")

// Message lo que viaja por el canal. Origin permite ignorar los mensajes propios.
type Message struct {
	Kind   Kind   `json:"kind"`
	Key    string `json:"key,omitempty"`
	Origin string `json:"origin"`
}

// Encode serializa el mensaje.
func Encode(m Message) ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parsea y valida un mensaje recibido.
func Decode(payload []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (m Message) validate() error {
	switch m.Kind {
	case KindFlush:
		return nil
	case KindTenant, KindStoreCode, KindStoresOfTenant:
		if m.Key == "" {
			return fmt.Errorf("%w: %s sin clave", ErrInvalidMessage, m.Kind)
		}
		return nil
	default:
		return fmt.Errorf("%w: tipo %q", ErrInvalidMessage, m.Kind)
	}
}

// Target lo implementa *cache.IdentityCache.
type Target interface {
	InvalidateTenant(tenantID string)
	InvalidateStoreCode(code string)
	InvalidateStoresOfTenant(tenantID string)
	Flush()
}

// Apply ejecuta el mensaje sobre la caché local.
func Apply(t Target, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	switch m.Kind {
	case KindTenant:
		t.InvalidateTenant(m.Key)
	case KindStoreCode:
		t.InvalidateStoreCode(m.Key)
	case KindStoresOfTenant:
		t.InvalidateStoresOfTenant(m.Key)
	case KindFlush:
		t.Flush()
	}
	return nil
}

// NewRedisClient abre y comprueba la conexión a partir de REDIS_URL.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalidation: REDIS_URL inválida: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("invalidation: no se pudo conectar a Redis: %w", err)
	}
	return client, nil
}

// Bus aplica cada invalidación localmente y la publica para el resto de instancias.
type Bus struct {
	client  *redis.Client // nil = solo local
	target  Target
	channel string
	origin  string
	log     *logger.Logger
}

// NewBus construye el bus. client puede ser nil.
func NewBus(client *redis.Client, target Target, log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		client:  client,
		target:  target,
		channel: DefaultChannel,
		origin:  uuid.NewString(),
		log:     log.Component("cache_invalidation"),
	}
}

// Origin identificador de esta instancia en los mensajes.
func (b *Bus) Origin() string { return b.origin }

// InvalidateTenant invalida id y slug del tenant en todas las instancias.
func (b *Bus) InvalidateTenant(ctx context.Context, tenantID string) error {
	return b.publish(ctx, Message{Kind: KindTenant, Key: tenantID})
}

// InvalidateStore invalida el código de la tienda y todos los códigos del tenant,
// por si el código cacheado era distinto del actual.
func (b *Bus) InvalidateStore(ctx context.Context, tenantID, code string) error {
	if code != "" {
		if err := b.publish(ctx, Message{Kind: KindStoreCode, Key: code}); err != nil {
			return err
		}
	}
	return b.publish(ctx, Message{Kind: KindStoresOfTenant, Key: tenantID})
}

// FlushAll vacía ambas tablas en todas las instancias.
func (b *Bus) FlushAll(ctx context.Context) error {
	return b.publish(ctx, Message{Kind: KindFlush})
}

// publish aplica primero en local: un fallo de Redis no deja a esta instancia con datos viejos.
func (b *Bus) publish(ctx context.Context, m Message) error {
	m.Origin = b.origin
	if err := Apply(b.target, m); err != nil {
		return err
	}
	if b.client == nil {
		return nil
	}
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("invalidation: publicar en %s: %w", b.channel, err)
	}
	return nil
}

// Run escucha el canal hasta que ctx se cancela. Sin cliente retorna enseguida.
func (b *Bus) Run(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Receive confirma la suscripción antes de empezar a leer.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("invalidation: suscribirse a %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Str("origin", b.origin).Msg("escuchando invalidaciones")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *Bus) handle(payload string) {
	m, err := Decode([]byte(payload))
	if err != nil {
		b.log.Warn().Err(err).Msg("mensaje de invalidación descartado")
		return
	}
	if m.Origin == b.origin {
		return
	}
	if err := Apply(b.target, m); err != nil {
		b.log.Warn().Err(err).Msg("mensaje de invalidación descartado")
		return
	}
	b.log.Debug().Str("kind", string(m.Kind)).Str("key", m.Key).Str("origin", m.Origin).Msg("invalidación remota aplicada")
}
