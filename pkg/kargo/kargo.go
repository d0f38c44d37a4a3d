// Package kargo is the entry point of the library. It wires every carrier
// adapter over shared token stores and hands out fluent builders.
package kargo

import (
	"github.com/redis/go-redis/v9"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/aras"
	"github.com/tournevent/kargo/pkg/shipper/dhl"
	"github.com/tournevent/kargo/pkg/shipper/hepsijet"
	"github.com/tournevent/kargo/pkg/shipper/ptt"
	"github.com/tournevent/kargo/pkg/shipper/token"
	"github.com/tournevent/kargo/pkg/shipper/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

// Tokens selects the token backend of a carrier.
type Tokens func(carrier string) token.Backend

// FileTokens keeps each carrier's tokens in a JSON file under dir, guarded
// by a lock file next to it.
func FileTokens(dir string) Tokens {
	return func(carrier string) token.Backend {
		return token.FileBackend(dir, carrier)
	}
}

// RedisTokens keeps tokens in Redis, one hash and one lock key per carrier.
func RedisTokens(client redis.UniversalClient) Tokens {
	return func(carrier string) token.Backend {
		return token.RedisBackend(client, carrier)
	}
}

// MemoryTokens keeps tokens in process memory only. Nothing is shared with
// other processes.
func MemoryTokens() Tokens {
	return func(string) token.Backend {
		return token.Backend{Store: token.NewMemoryStore()}
	}
}

// Options configures New. Carrier configs are optional; the shared fields
// below fill whatever they leave unset.
type Options struct {
	Logger *otelzap.Logger
	Tracer trace.Tracer
	// Tokens defaults to FileTokens in the system temp directory.
	Tokens   Tokens
	Observer shipper.Observer
	Recorder token.Recorder
	// UseMock makes every adapter use its mock API client.
	UseMock bool

	HepsiJet hepsijet.Config
	DHL      dhl.Config
	UPS      ups.Config
	Aras     aras.Config
	PTT      ptt.Config
}

// Kargo holds one adapter per carrier. It is safe for concurrent use;
// builders are not and should be created per call chain.
type Kargo struct {
	hepsijet *hepsijet.Client
	dhl      *dhl.Client
	ups      *ups.Client
	aras     *aras.Client
	ptt      *ptt.Client
	registry *shipper.Registry
}

// New creates the adapters of all supported carriers.
func New(opts Options) *Kargo {
	if opts.Tokens == nil {
		opts.Tokens = FileTokens("")
	}
	backend := func(carrier string, cfg token.Backend) token.Backend {
		if cfg.Store != nil {
			return cfg
		}
		return opts.Tokens(carrier)
	}
	observer := func(o shipper.Observer) shipper.Observer {
		if o != nil {
			return o
		}
		return opts.Observer
	}
	recorder := func(r token.Recorder) token.Recorder {
		if r != nil {
			return r
		}
		return opts.Recorder
	}

	hj := opts.HepsiJet
	hj.Tokens = backend("hepsijet", hj.Tokens)
	hj.Observer = observer(hj.Observer)
	hj.Recorder = recorder(hj.Recorder)
	hj.UseMock = hj.UseMock || opts.UseMock

	mng := opts.DHL
	mng.Tokens = backend("dhl", mng.Tokens)
	mng.Observer = observer(mng.Observer)
	mng.Recorder = recorder(mng.Recorder)
	mng.UseMock = mng.UseMock || opts.UseMock

	u := opts.UPS
	u.Observer = observer(u.Observer)
	u.UseMock = u.UseMock || opts.UseMock

	a := opts.Aras
	a.Observer = observer(a.Observer)
	a.UseMock = a.UseMock || opts.UseMock

	p := opts.PTT
	p.Observer = observer(p.Observer)
	p.UseMock = p.UseMock || opts.UseMock

	k := &Kargo{
		hepsijet: hepsijet.New(hj, opts.Logger, opts.Tracer),
		dhl:      dhl.New(mng, opts.Logger, opts.Tracer),
		ups:      ups.New(u, opts.Logger, opts.Tracer),
		aras:     aras.New(a, opts.Logger, opts.Tracer),
		ptt:      ptt.New(p, opts.Logger, opts.Tracer),
		registry: shipper.NewRegistry(),
	}
	k.registry.Register(k.hepsijet)
	k.registry.Register(k.dhl)
	k.registry.Register(k.ups)
	k.registry.Register(k.aras)
	k.registry.Register(k.ptt)
	return k
}

// HepsiJet returns a new HepsiJet builder.
func (k *Kargo) HepsiJet() *hepsijet.Builder {
	return hepsijet.NewBuilder(k.hepsijet)
}

// DHL returns a new DHL/MNG builder.
func (k *Kargo) DHL() *dhl.Builder {
	return dhl.NewBuilder(k.dhl)
}

// UPS returns a new UPS builder.
func (k *Kargo) UPS() *ups.Builder {
	return ups.NewBuilder(k.ups)
}

// Aras returns a new Aras builder.
func (k *Kargo) Aras() *aras.Builder {
	return aras.NewBuilder(k.aras)
}

// PTT returns a new PTT builder.
func (k *Kargo) PTT() *ptt.Builder {
	return ptt.NewBuilder(k.ptt)
}

// Registry returns the adapters keyed by carrier name.
func (k *Kargo) Registry() *shipper.Registry {
	return k.registry
}

// TokenManagers returns the token managers of the carriers that use bearer
// tokens, keyed by carrier name.
func (k *Kargo) TokenManagers() map[string]*token.Manager {
	return map[string]*token.Manager{
		k.hepsijet.Name(): k.hepsijet.Tokens(),
		k.dhl.Name():      k.dhl.Tokens(),
	}
}
