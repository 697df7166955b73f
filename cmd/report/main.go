// Command report computes a compost report offline from a JSON fixture, using
// the same normalization and aggregation as the service.
//
// Usage:
//
//	go run ./cmd/report -in data/mock/compost_bac_a.json -out report.json
//
// The fixture holds the compost, its norms, the known users and the raw
// readings. Readings without a compostId are attributed to the fixture's compost.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
)

type fixture struct {
	Compost struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"compost"`
	Norms    *domain.ThresholdConfig `json:"norms"`
	Users    []domain.User           `json:"users"`
	Readings []domain.ReadingInput   `json:"readings"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	in := fs.String("in", "data/mock/compost_bac_a.json", "path to the JSON fixture")
	out := fs.String("out", "", "output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	data, err := loadFixture(raw)
	if err != nil {
		return err
	}

	rep := domain.NewReport(domain.Summarize(data))
	encoded, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	encoded = append(encoded, '\n')

	if *out == "" {
		_, err = stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("wrote report for %q (%d readings) to %s", data.CompostName, len(data.Readings), *out)
	return nil
}

func loadFixture(raw []byte) (domain.ReportData, error) {
	var fx fixture
	if err := domain.DecodeJSON(raw, &fx); err != nil {
		return domain.ReportData{}, fmt.Errorf("parse fixture: %w", err)
	}
	if fx.Compost.ID <= 0 {
		return domain.ReportData{}, fmt.Errorf("fixture compost id must be positive, got %d", fx.Compost.ID)
	}
	if fx.Norms != nil {
		fx.Norms.CompostID = fx.Compost.ID
	}

	readings := make([]domain.Reading, 0, len(fx.Readings))
	for i, input := range fx.Readings {
		if input.CompostID == 0 {
			input.CompostID = fx.Compost.ID
		}
		if input.ID == 0 {
			input.ID = int64(i + 1)
		}
		r, err := input.Validate()
		if err != nil {
			return domain.ReportData{}, fmt.Errorf("reading %d: %w", i, err)
		}
		readings = append(readings, r)
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})

	recorders := make(map[int64]domain.User, len(fx.Users))
	for _, u := range fx.Users {
		recorders[u.ID] = u
	}

	return domain.ReportData{
		CompostID:   fx.Compost.ID,
		CompostName: fx.Compost.Name,
		Config:      fx.Norms,
		Readings:    readings,
		Recorders:   recorders,
	}, nil
}
