package postgres

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/intrence/catalog/pkg/config"
)

const (
	DefaultAdminPort           = 15432
	DefaultSessionPort         = 6432
	DefaultTransactionPort     = 5432
	DefaultSessionPoolSize     = 2
	DefaultTransactionPoolSize = 50
)

// Credential is a database role login.
type Credential struct {
	User     string
	Password string
}

func (c Credential) String() string {
	return c.User + ":[REDACTED]"
}

// DescriptorOptions is the input to NewDescriptor. Zero ports and pool sizes
// take the defaults.
type DescriptorOptions struct {
	Host                string
	Database            string
	App                 *Credential
	DBA                 *Credential
	SSLMode             string
	Properties          map[string]string
	AdminPort           int
	SessionPort         int
	TransactionPort     int
	SessionPoolSize     int
	TransactionPoolSize int
	AcquireTimeout      time.Duration
	StatementTimeout    time.Duration
}

// Descriptor describes how to reach one database through the proxy. It is
// immutable; the manager keys pools by descriptor pointer, so two descriptors
// with equal contents still get separate pools.
type Descriptor struct {
	host             string
	database         string
	creds            map[Role]Credential
	sslMode          string
	properties       map[string]string
	ports            [tierCount]int
	poolSizes        [tierCount]int
	acquireTimeout   time.Duration
	statementTimeout time.Duration
}

func NewDescriptor(opts DescriptorOptions) (*Descriptor, error) {
	var problems []string
	if strings.TrimSpace(opts.Host) == "" {
		problems = append(problems, "host must be set")
	}
	if strings.TrimSpace(opts.Database) == "" {
		problems = append(problems, "database must be set")
	}
	if opts.App == nil && opts.DBA == nil {
		problems = append(problems, "one of dba or app credentials must be set")
	}
	for role, c := range map[Role]*Credential{RoleApp: opts.App, RoleDBA: opts.DBA} {
		if c != nil && c.User == "" {
			problems = append(problems, fmt.Sprintf("%s credential has no user", role))
		}
	}
	d := &Descriptor{
		host:             opts.Host,
		database:         opts.Database,
		creds:            make(map[Role]Credential, 2),
		sslMode:          opts.SSLMode,
		properties:       maps.Clone(opts.Properties),
		acquireTimeout:   opts.AcquireTimeout,
		statementTimeout: opts.StatementTimeout,
	}
	d.ports[TierAdmin] = orDefault(opts.AdminPort, DefaultAdminPort)
	d.ports[TierSession] = orDefault(opts.SessionPort, DefaultSessionPort)
	d.ports[TierTransaction] = orDefault(opts.TransactionPort, DefaultTransactionPort)
	d.poolSizes[TierAdmin] = 1
	d.poolSizes[TierSession] = orDefault(opts.SessionPoolSize, DefaultSessionPoolSize)
	d.poolSizes[TierTransaction] = orDefault(opts.TransactionPoolSize, DefaultTransactionPoolSize)
	for _, t := range Tiers {
		if d.ports[t] < 0 || d.ports[t] > 65535 {
			problems = append(problems, fmt.Sprintf("%s port %d out of range", t, d.ports[t]))
		}
		if d.poolSizes[t] < 0 {
			problems = append(problems, fmt.Sprintf("%s pool size %d is negative", t, d.poolSizes[t]))
		}
	}
	if opts.AcquireTimeout < 0 || opts.StatementTimeout < 0 {
		problems = append(problems, "timeouts cannot be negative")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, strings.Join(problems, "; "))
	}
	if opts.App != nil {
		d.creds[RoleApp] = *opts.App
	}
	if opts.DBA != nil {
		d.creds[RoleDBA] = *opts.DBA
	}
	return d, nil
}

// DescriptorFromConfig builds a descriptor from loaded configuration.
func DescriptorFromConfig(cfg *config.PostgresConfig) (*Descriptor, error) {
	if cfg == nil {
		return nil, errors.New("postgres: config is required")
	}
	opts := DescriptorOptions{
		Host:                cfg.Host,
		Database:            cfg.Database,
		SSLMode:             cfg.SSLMode,
		Properties:          cfg.Properties,
		AdminPort:           cfg.Admin.Port,
		SessionPort:         cfg.Session.Port,
		TransactionPort:     cfg.Transaction.Port,
		SessionPoolSize:     cfg.Session.PoolSize,
		TransactionPoolSize: cfg.Transaction.PoolSize,
		AcquireTimeout:      cfg.AcquireTimeout,
		StatementTimeout:    cfg.StatementTimeout,
	}
	if cfg.App.Present() {
		opts.App = &Credential{User: cfg.App.User, Password: cfg.App.Password.Value()}
	}
	if cfg.DBA.Present() {
		opts.DBA = &Credential{User: cfg.DBA.User, Password: cfg.DBA.Password.Value()}
	}
	return NewDescriptor(opts)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (d *Descriptor) Host() string                    { return d.host }
func (d *Descriptor) Database() string                { return d.database }
func (d *Descriptor) SSLMode() string                 { return d.sslMode }
func (d *Descriptor) Port(t Tier) int                 { return d.ports[t] }
func (d *Descriptor) PoolSize(t Tier) int             { return d.poolSizes[t] }
func (d *Descriptor) AcquireTimeout() time.Duration   { return d.acquireTimeout }
func (d *Descriptor) StatementTimeout() time.Duration { return d.statementTimeout }

func (d *Descriptor) Timeouts() Timeouts {
	return Timeouts{Acquire: d.acquireTimeout, Statement: d.statementTimeout}
}

// Properties returns a copy of the extra connection properties.
func (d *Descriptor) Properties() map[string]string {
	return maps.Clone(d.properties)
}

func (d *Descriptor) Credential(r Role) (Credential, bool) {
	c, ok := d.creds[r]
	return c, ok
}

func (d *Descriptor) hasConnectionOptions() bool {
	return d.sslMode != "" || len(d.properties) > 0
}
