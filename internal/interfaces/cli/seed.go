package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	contactapp "github.com/investorcrm/backend/internal/application/contact"
	identityapp "github.com/investorcrm/backend/internal/application/identity"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	csvimport "github.com/investorcrm/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Company     string
	Email       string
	Password    string
	Investors   int
	Connections int
	Seed        uint64
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo workspace with investors, contacts and a LinkedIn network",
		Long: `Create a new workspace owned by --email and fill it with generated investors,
their contacts and a LinkedIn connections export for the owner. Some connections
work at the generated firms, so the import produces warm-intro suggestions.

Example:
  crmctl seed --email founder@example.com --password 'change-me-now' --investors 40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()
			return runSeed(cmd.Context(), a, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Company, "company", "", "workspace name (default: generated)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "owner email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "owner password (required, at least 8 characters)")
	cmd.Flags().IntVar(&opts.Investors, "investors", 25, "number of investors to create")
	cmd.Flags().IntVar(&opts.Connections, "connections", 150, "number of LinkedIn connections to import")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// seedInvestor is one generated investor and the people who work there
type seedInvestor struct {
	Investor investorapp.CreateInvestorRequest
	Contacts []contactapp.CreateContactRequest
}

// seedData is everything the seed command writes
type seedData struct {
	Company     string
	Investors   []seedInvestor
	Connections []byte // LinkedIn Connections.csv
}

var (
	investorTypes = []string{"vc", "vc", "vc", "angel", "cvc", "family_office", "accelerator"}
	priorities    = []string{"low", "medium", "medium", "high"}
	focusAreas    = []string{"fintech", "saas", "climate", "healthcare", "ai", "marketplaces", "devtools", "consumer", "security"}
)

// generateSeed builds the demo data. The same faker seed yields the same data.
func generateSeed(f *gofakeit.Faker, company string, investors, connections int) seedData {
	if company == "" {
		company = f.Company()
	}
	data := seedData{Company: company, Investors: make([]seedInvestor, 0, investors)}

	firms := make([]string, 0, investors)
	seen := make(map[string]bool, investors)
	for len(data.Investors) < investors {
		firm := f.LastName() + " " + f.RandomString([]string{"Ventures", "Capital", "Partners", "Fund"})
		if seen[firm] {
			continue
		}
		seen[firm] = true
		firms = append(firms, firm)

		minCheck := int64(f.IntRange(1, 20)) * 100_000
		maxCheck := minCheck * int64(f.IntRange(2, 10))
		lo, hi := decimal.NewFromInt(minCheck), decimal.NewFromInt(maxCheck)
		partner := f.FirstName() + " " + f.LastName()
		domain := slug(firm) + ".com"

		inv := seedInvestor{
			Investor: investorapp.CreateInvestorRequest{
				Name:         partner,
				FirmName:     firm,
				Type:         f.RandomString(investorTypes),
				Priority:     f.RandomString(priorities),
				Currency:     "USD",
				CheckSizeMin: &lo,
				CheckSizeMax: &hi,
				Website:      "https://" + domain,
				Location:     f.City(),
				FocusAreas:   []string{f.RandomString(focusAreas), f.RandomString(focusAreas)},
				Tags:         []string{"seed-data"},
				Source:       "crmctl seed",
			},
		}
		people := f.IntRange(1, 3)
		for i := 0; i < people; i++ {
			first, last := f.FirstName(), f.LastName()
			inv.Contacts = append(inv.Contacts, contactapp.CreateContactRequest{
				FirstName: first,
				LastName:  last,
				Email:     slug(first) + "." + slug(last) + "@" + domain,
				Phone:     f.Phone(),
				Title:     f.RandomString([]string{"Partner", "Principal", "Associate", "Managing Partner"}),
				IsPrimary: i == 0,
			})
		}
		data.Investors = append(data.Investors, inv)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		csvimport.ColFirstName, csvimport.ColLastName, csvimport.ColURL, csvimport.ColEmail,
		csvimport.ColCompany, csvimport.ColPosition, csvimport.ColConnectedOn,
	})
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < connections; i++ {
		first, last := f.FirstName(), f.LastName()
		employer, position := f.Company(), f.JobTitle()
		// every fourth connection works at one of the generated firms
		if i%4 == 0 && len(firms) > 0 {
			employer = f.RandomString(firms)
			position = f.RandomString([]string{"Partner", "Venture Partner", "Principal", "Analyst"})
		}
		_ = w.Write([]string{
			first,
			last,
			fmt.Sprintf("https://www.linkedin.com/in/%s-%s-%d", slug(first), slug(last), i),
			"",
			employer,
			position,
			f.DateRange(start, end).Format("02 Jan 2006"),
		})
	}
	w.Flush()
	data.Connections = buf.Bytes()
	return data
}

// slug keeps the lowercase letters and digits of s
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func runSeed(ctx context.Context, a *app, opts *SeedOptions, cmd *cobra.Command) error {
	data := generateSeed(gofakeit.New(opts.Seed), opts.Company, opts.Investors, opts.Connections)

	session, err := a.auth.Register(ctx, identityapp.RegisterInput{
		CompanyName: data.Company,
		Email:       opts.Email,
		Password:    opts.Password,
		DisplayName: strings.Split(opts.Email, "@")[0],
	})
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	tenantID, userID := session.User.TenantID, session.User.ID

	contacts := 0
	for _, si := range data.Investors {
		inv, err := a.investors.Create(ctx, tenantID, userID, si.Investor)
		if err != nil {
			return fmt.Errorf("create investor %q: %w", si.Investor.FirmName, err)
		}
		for _, c := range si.Contacts {
			c.InvestorID = &inv.ID
			if _, err := a.contacts.Create(ctx, tenantID, userID, c); err != nil {
				return fmt.Errorf("create contact %s %s: %w", c.FirstName, c.LastName, err)
			}
			contacts++
		}
	}

	imported, err := a.network.ImportCSV(ctx, tenantID, userID, bytes.NewReader(data.Connections))
	if err != nil {
		return fmt.Errorf("import connections: %w", err)
	}
	matched, err := a.network.RunMatching(ctx, tenantID, &userID)
	if err != nil {
		return fmt.Errorf("match network: %w", err)
	}

	result := map[string]any{
		"workspace":   session.User.TenantSlug,
		"tenant_id":   tenantID,
		"owner_id":    userID,
		"investors":   len(data.Investors),
		"contacts":    contacts,
		"connections": imported.Created + imported.Updated,
		"warm_intros": matched.Suggested,
	}
	return printResult(cmd.OutOrStdout(), opts.Format, result)
}
