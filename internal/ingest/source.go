// Package ingest assembles the faculty and research output snapshots from the
// research directory and the public profile listing.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
	"github.com/lueurxax/faculty-research-sync/internal/ingest/directory"
	"github.com/lueurxax/faculty-research-sync/internal/ingest/profiles"
)

// DirectoryClient is the part of the directory API the source uses.
type DirectoryClient interface {
	Faculty(ctx context.Context) ([]directory.Person, error)
	ResearchOutputs(ctx context.Context, personID string) ([]domain.ResearchOutput, error)
}

// ProfileScraper returns the public profile listing.
type ProfileScraper interface {
	Profiles(ctx context.Context) ([]profiles.Profile, error)
}

// Source produces raw snapshots. Records are not validated here; identity
// resolution happens during reconciliation.
type Source struct {
	directory DirectoryClient
	profiles  ProfileScraper
	logger    *zerolog.Logger
}

// New returns a source. A nil scraper makes the directory the only faculty
// source.
func New(dir DirectoryClient, scraper ProfileScraper, logger *zerolog.Logger) *Source {
	l := logger.With().Str("component", "ingest").Logger()

	return &Source{directory: dir, profiles: scraper, logger: &l}
}

// FetchFaculty returns the current faculty snapshot. With a scraper the
// snapshot is the listing joined to directory staff on email: name and
// department come from the listing, person_id and email from the directory.
func (s *Source) FetchFaculty(ctx context.Context) ([]domain.Faculty, error) {
	persons, err := s.directory.Faculty(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching directory staff: %w", err)
	}

	if s.profiles == nil {
		return fromDirectory(persons), nil
	}

	listing, err := s.profiles.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("scraping faculty profiles: %w", err)
	}

	faculty, unmatched := join(listing, persons)

	s.logger.Info().
		Int("directory", len(persons)).
		Int("profiles", len(listing)).
		Int("joined", len(faculty)).
		Int("unmatched_profiles", unmatched).
		Msg("faculty snapshot assembled")

	return faculty, nil
}

// FetchOutputs returns the research outputs of one person.
func (s *Source) FetchOutputs(ctx context.Context, personID string) ([]domain.ResearchOutput, error) {
	return s.directory.ResearchOutputs(ctx, personID)
}

func fromDirectory(persons []directory.Person) []domain.Faculty {
	faculty := make([]domain.Faculty, 0, len(persons))

	for _, p := range persons {
		faculty = append(faculty, domain.Faculty{
			PersonID:   p.PersonID,
			Name:       p.Name,
			Email:      p.Email,
			Department: strings.Join(p.Units, ", "),
		})
	}

	return faculty
}

// join keeps listing order. A listing row whose email matches no directory
// person is dropped and counted.
func join(listing []profiles.Profile, persons []directory.Person) ([]domain.Faculty, int) {
	byEmail := make(map[string]directory.Person, len(persons))

	for _, p := range persons {
		key := identity.NormalizeEmail(p.Email)
		if _, dup := byEmail[key]; !dup && key != "" {
			byEmail[key] = p
		}
	}

	var (
		faculty   []domain.Faculty
		unmatched int
	)

	for _, prof := range listing {
		p, ok := byEmail[identity.NormalizeEmail(prof.Email)]
		if !ok {
			unmatched++

			continue
		}

		faculty = append(faculty, domain.Faculty{
			PersonID:   p.PersonID,
			Name:       prof.Name,
			Email:      p.Email,
			Department: prof.Department,
		})
	}

	return faculty, unmatched
}
