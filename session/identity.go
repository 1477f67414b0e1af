package session

import (
	"coilflow/event"
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrUnknownActor = errors.New("unknown actor")

type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

func (i *Identity) DisplayName() string {
	if i.Nickname != "" {
		return i.Nickname
	}
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// IdentityProvider is the user directory owned by the identity service.
type IdentityProvider interface {
	Lookup(ctx context.Context, actorID string) (*Identity, error)
}

// Directory is a fixed identity provider, keyed by actor id.
type Directory map[string]Identity

func (d Directory) Lookup(ctx context.Context, actorID string) (*Identity, error) {
	identity, found := d[actorID]
	if !found {
		return nil, ErrUnknownActor
	}
	if identity.ID == "" {
		identity.ID = actorID
	}
	return &identity, nil
}

const DefaultIdentityExpiration = 10 * time.Minute

// CachingResolver resolves actor ids to audit identities and remembers the answers for a while.
type CachingResolver struct {
	provider IdentityProvider
	cache    *cache.Cache
}

func NewCachingResolver(provider IdentityProvider, expiration time.Duration) *CachingResolver {
	if expiration <= 0 {
		expiration = DefaultIdentityExpiration
	}
	return &CachingResolver{provider: provider, cache: cache.New(expiration, 2*expiration)}
}

func (r *CachingResolver) Resolve(ctx context.Context, actorID string) (event.Actor, error) {
	if value, found := r.cache.Get(actorID); found {
		if identity, ok := value.(*Identity); ok {
			return event.Actor{ID: actorID, Name: identity.DisplayName()}, nil
		}
	}
	identity, err := r.provider.Lookup(ctx, actorID)
	if err != nil {
		return event.Actor{}, err
	}
	r.cache.SetDefault(actorID, identity)
	return event.Actor{ID: actorID, Name: identity.DisplayName()}, nil
}
