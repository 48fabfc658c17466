// Package performance blends initiative scores and review scores into a
// per-cycle performance score, band and rank, and renders the PDF report.
package performance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jung-kurt/gofpdf"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/domain/reviews"
)

type Orgs interface {
	Tree(ctx context.Context) (*access.OrgTree, error)
}

type Service struct {
	store StoreAPI
	orgs  Orgs
	now   func() time.Time
}

func NewService(store StoreAPI, orgs Orgs) *Service {
	return &Service{store: store, orgs: orgs, now: time.Now}
}

func notFound(err, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return err
}

func (s *Service) cycle(ctx context.Context, cycleID string) (Cycle, error) {
	c, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return c, nil
}

// Calculate recomputes every participant's score for the cycle and replaces
// the stored ranks.
func (s *Service) Calculate(ctx context.Context, p access.Principal, cycleID string) (Leaderboard, error) {
	if !p.Has(auth.PermPerformanceEdit) {
		return Leaderboard{}, ErrCalculateDenied
	}
	cycle, err := s.cycle(ctx, cycleID)
	if err != nil {
		return Leaderboard{}, err
	}
	if cycle.Status != reviews.CycleActive && cycle.Status != reviews.CycleCompleted {
		return Leaderboard{}, ErrCycleNotScorable
	}
	inputs, err := s.store.Inputs(ctx, cycle)
	if err != nil {
		return Leaderboard{}, err
	}
	tree, err := s.orgs.Tree(ctx)
	if err != nil {
		return Leaderboard{}, err
	}
	scores := Calculate(cycle.ID, inputs, tree, s.now().UTC())
	if err := s.store.SaveScores(ctx, cycle.ID, scores); err != nil {
		return Leaderboard{}, err
	}
	slog.Info("performance scores calculated", "cycle_id", cycle.ID, "participants", len(scores))
	return s.leaderboard(ctx, cycle)
}

func (s *Service) Get(ctx context.Context, p access.Principal, cycleID, userID string) (Score, error) {
	if p.UserID != userID && !p.Has(auth.PermPerformanceViewAll) {
		return Score{}, ErrViewDenied
	}
	if _, err := s.cycle(ctx, cycleID); err != nil {
		return Score{}, err
	}
	sc, err := s.store.Score(ctx, cycleID, userID)
	if err != nil {
		return Score{}, notFound(err, ErrScoreNotFound)
	}
	return sc, nil
}

func (s *Service) Leaderboard(ctx context.Context, p access.Principal, cycleID string) (Leaderboard, error) {
	if !p.Has(auth.PermPerformanceViewAll) {
		return Leaderboard{}, ErrLeaderboardDenied
	}
	cycle, err := s.cycle(ctx, cycleID)
	if err != nil {
		return Leaderboard{}, err
	}
	return s.leaderboard(ctx, cycle)
}

func (s *Service) leaderboard(ctx context.Context, cycle Cycle) (Leaderboard, error) {
	scores, err := s.store.Scores(ctx, cycle.ID)
	if err != nil {
		return Leaderboard{}, err
	}
	return Leaderboard{Cycle: cycle, Summary: buildSummary(scores), Scores: scores}, nil
}

// Report renders a user's score for the cycle as a PDF.
func (s *Service) Report(ctx context.Context, p access.Principal, cycleID, userID string) ([]byte, error) {
	sc, err := s.Get(ctx, p, cycleID, userID)
	if err != nil {
		return nil, err
	}
	cycle, err := s.cycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	traits, err := s.store.TraitScores(ctx, cycleID, userID)
	if err != nil {
		return nil, err
	}
	return renderReport(cycle, sc, traits)
}

func renderReport(cycle Cycle, sc Score, traits []TraitLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", sc.UserName))
	pdf.Ln(7)
	if sc.JobTitle != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Job title: %s", sc.JobTitle))
		pdf.Ln(7)
	}
	if sc.OrganizationName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Organization: %s", sc.OrganizationName))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Cycle: %s (%s to %s)", cycle.Name,
		cycle.StartDate.Format("2006-01-02"), cycle.EndDate.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Scores")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Task performance: %s", formatScore(sc.TaskScore)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Review performance: %s", formatScore(sc.ReviewScore)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Overall: %s", formatScore(sc.OverallScore)))
	pdf.Ln(7)
	if sc.Band != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Band: %s", sc.Band))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Rank: organization %s, department %s, directorate %s",
		formatRank(sc.OrganizationRank), formatRank(sc.DepartmentRank), formatRank(sc.DirectorateRank)))
	pdf.Ln(10)

	if len(traits) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Review traits")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 12)
		for _, t := range traits {
			pdf.Cell(120, 7, t.Name)
			pdf.Cell(0, 7, formatScore(t.ScaledScore))
			pdf.Ln(7)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatRank(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *v)
}
