package repo

import (
	"fmt"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/models/m_registrar"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// RegistrarEntity adapts a domain registrar to the committer.Entity contract.
type RegistrarEntity struct {
	*domain.Registrar
}

func buildRegistrarValues(r *domain.Registrar) map[string]interface{} {
	return m_registrar.BuildUpsertMap(
		r.ClientID(), r.Name(), string(r.Type()), string(r.State()), r.IanaID(), r.Email(),
		r.CreationTime().UTC(), r.LastUpdateTime().Ptr())
}

func (e RegistrarEntity) Row() committer.Row {
	return m_registrar.UpsertRow(buildRegistrarValues(e.Registrar))
}

// RegistrarDecoder decodes Registrar payloads.
type RegistrarDecoder struct {
	codec encoding.Codec
}

func NewRegistrarDecoder(codec encoding.Codec) *RegistrarDecoder {
	return &RegistrarDecoder{codec: codec}
}

func (d *RegistrarDecoder) Kind() string      { return domain.KindRegistrar }
func (d *RegistrarDecoder) Table() string     { return m_registrar.TableName }
func (d *RegistrarDecoder) KeyColumn() string { return m_registrar.ColClientID }

func (d *RegistrarDecoder) Decode(payload []byte) (committer.Entity, error) {
	var p dto.RegistrarPayload
	if err := d.codec.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%s payload: %w", d.codec.Name(), err)
	}
	r, err := p.ToDomain()
	if err != nil {
		return nil, err
	}
	return RegistrarEntity{Registrar: r}, nil
}
