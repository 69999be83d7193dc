package hashmirror

import (
	"github.com/unkn0wn-root/hashmirror/clientpool"
	c "github.com/unkn0wn-root/hashmirror/codec"
)

const (
	defaultHost = "localhost"
	defaultPort = 6379
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func (o Options[V]) endpoint() clientpool.Endpoint {
	return clientpool.Endpoint{
		Host:    coalesce(o.Host, defaultHost),
		Port:    coalesce(o.Port, defaultPort),
		Options: o.Store,
	}
}

func (o Options[V]) codec() c.Codec[V] {
	return coalesce[c.Codec[V]](o.Codec, c.JSON[V]{})
}

func (o Options[V]) clients() clientpool.Provider {
	if o.Clients == nil {
		return clientpool.Default()
	}
	return o.Clients
}
