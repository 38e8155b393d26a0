package capture_fixtures

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/pkg/clock"
)

// Request describes the fixture set to capture.
type Request struct {
	Contacts      int
	RegistrarID   string
	RegistrarName string
	IanaID        int64
	CountryCode   string
}

// Result lists the natural keys that were captured.
type Result struct {
	RegistrarID string
	ContactIDs  []string
}

// Interactor seeds the legacy store with one registrar and the contacts it
// sponsors, the way the legacy system would have persisted them.
type Interactor struct {
	Source contracts.SourceStore
	Clock  clock.Clock
}

func NewInteractor(source contracts.SourceStore, clk clock.Clock) *Interactor {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Interactor{Source: source, Clock: clk}
}

// Execute validates every entity through the domain before capturing any of
// them, so an invalid request leaves the store untouched.
func (it *Interactor) Execute(ctx context.Context, req Request) (Result, error) {
	if req.Contacts < 0 {
		return Result{}, fmt.Errorf("contacts must not be negative, got %d", req.Contacts)
	}
	now := it.Clock.Now().UTC()

	// 1. Build domain entities
	var iana *int64
	if req.IanaID != 0 {
		v := req.IanaID
		iana = &v
	}
	registrar, err := domain.NewRegistrar(domain.RegistrarDetails{
		ClientID:     req.RegistrarID,
		Name:         req.RegistrarName,
		Type:         domain.RegistrarTypeReal,
		State:        domain.RegistrarStateActive,
		IanaID:       iana,
		Email:        strings.ToLower(req.RegistrarID) + "@example.com",
		CreationTime: now,
	})
	if err != nil {
		return Result{}, fmt.Errorf("registrar %q: %w", req.RegistrarID, err)
	}

	contacts := make([]*domain.Contact, 0, req.Contacts)
	for i := 0; i < req.Contacts; i++ {
		c, err := domain.NewContact(domain.ContactDetails{
			ContactID:       fmt.Sprintf("contact_%d", i),
			RepoID:          strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")) + "-ROID",
			Email:           fmt.Sprintf("contact%d@example.com", i),
			Name:            fmt.Sprintf("Contact %d", i),
			CountryCode:     req.CountryCode,
			SponsorClientID: registrar.ClientID(),
			CreationTime:    now,
		})
		if err != nil {
			return Result{}, fmt.Errorf("contact %d: %w", i, err)
		}
		contacts = append(contacts, c)
	}

	// 2. Capture
	res := Result{RegistrarID: registrar.ClientID(), ContactIDs: make([]string, 0, len(contacts))}
	if _, err := it.Source.Capture(ctx, domain.KindRegistrar, registrar.NaturalKey(), dto.RegistrarPayloadFromDomain(registrar)); err != nil {
		return Result{}, err
	}
	for _, c := range contacts {
		if _, err := it.Source.Capture(ctx, domain.KindContact, c.NaturalKey(), dto.ContactPayloadFromDomain(c)); err != nil {
			return res, err
		}
		res.ContactIDs = append(res.ContactIDs, c.ContactID())
	}

	log.Info().
		Str("registrar", res.RegistrarID).
		Int("contacts", len(res.ContactIDs)).
		Msg("Captured fixtures into legacy store")
	return res, nil
}
