package domain

import (
	"strings"
	"time"
)

// RegistrarType is the kind of business a registrar account represents.
type RegistrarType string

const (
	RegistrarTypeReal       RegistrarType = "REAL"
	RegistrarTypeTest       RegistrarType = "TEST"
	RegistrarTypeOTE        RegistrarType = "OTE"
	RegistrarTypeInternal   RegistrarType = "INTERNAL"
	RegistrarTypeMonitoring RegistrarType = "MONITORING"
)

// RegistrarState is the lifecycle state of a registrar account.
type RegistrarState string

const (
	RegistrarStatePending   RegistrarState = "PENDING"
	RegistrarStateActive    RegistrarState = "ACTIVE"
	RegistrarStateSuspended RegistrarState = "SUSPENDED"
	RegistrarStateDisabled  RegistrarState = "DISABLED"
)

// RegistrarDetails carries the persisted state of a registrar.
type RegistrarDetails struct {
	ClientID       string
	Name           string
	Type           RegistrarType
	State          RegistrarState
	IanaID         *int64
	Email          string
	CreationTime   time.Time
	LastUpdateTime *time.Time
}

// Registrar is a registry registrar account, keyed by client id.
type Registrar struct {
	clientID       string
	name           string
	registrarType  RegistrarType
	state          RegistrarState
	ianaID         *int64
	email          string
	creationTime   time.Time
	lastUpdateTime UpdateAutoTimestamp
}

func NewRegistrar(d RegistrarDetails) (*Registrar, error) {
	id := strings.TrimSpace(d.ClientID)
	if id == "" {
		return nil, ErrEmptyNaturalKey
	}

	t := RegistrarType(strings.ToUpper(string(d.Type)))
	switch t {
	case RegistrarTypeReal, RegistrarTypeTest, RegistrarTypeOTE, RegistrarTypeInternal, RegistrarTypeMonitoring:
	default:
		return nil, ErrInvalidRegistrarType
	}
	if t == RegistrarTypeReal && d.IanaID == nil {
		return nil, ErrMissingIanaID
	}

	s := RegistrarState(strings.ToUpper(string(d.State)))
	if s == "" {
		s = RegistrarStatePending
	}
	switch s {
	case RegistrarStatePending, RegistrarStateActive, RegistrarStateSuspended, RegistrarStateDisabled:
	default:
		return nil, ErrInvalidRegistrarState
	}

	var iana *int64
	if d.IanaID != nil {
		v := *d.IanaID
		iana = &v
	}

	return &Registrar{
		clientID:       id,
		name:           strings.TrimSpace(d.Name),
		registrarType:  t,
		state:          s,
		ianaID:         iana,
		email:          strings.TrimSpace(d.Email),
		creationTime:   d.CreationTime.UTC(),
		lastUpdateTime: NewUpdateAutoTimestamp(d.LastUpdateTime),
	}, nil
}

func (r *Registrar) NaturalKey() string      { return r.clientID }
func (r *Registrar) ClientID() string        { return r.clientID }
func (r *Registrar) Name() string            { return r.name }
func (r *Registrar) Type() RegistrarType     { return r.registrarType }
func (r *Registrar) State() RegistrarState   { return r.state }
func (r *Registrar) IanaID() *int64          { return r.ianaID }
func (r *Registrar) Email() string           { return r.email }
func (r *Registrar) CreationTime() time.Time { return r.creationTime }

func (r *Registrar) LastUpdateTime() UpdateAutoTimestamp {
	return r.lastUpdateTime
}

func (r *Registrar) PrepareForSave(txTime time.Time) {
	r.lastUpdateTime.OnSave(txTime)
}
