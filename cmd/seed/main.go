// Command seed bulk-creates users from a JSON file or URL.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"userdirectory/internal/auth"
	"userdirectory/internal/config"
	"userdirectory/internal/db"
	apperrors "userdirectory/internal/errors"
	"userdirectory/internal/logging"
	"userdirectory/internal/model"
	"userdirectory/internal/repository"
	"userdirectory/internal/service"
	"userdirectory/internal/validation"
)

const (
	flagOutput = "output"
	flagSource = "source"

	outcomeCreated   = "CREATED"
	outcomeDuplicate = "DUPLICATE"
	outcomeInvalid   = "INVALID"
	outcomeFailed    = "FAILED"
)

// SeedUser is one record of the seed file.
// Records are checked with the same rules as the create-user request.
type SeedUser struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	MiddleName     string  `json:"middle_name"`
	Password       string  `json:"password" validate:"required,password"`
	Role           string  `json:"role" validate:"required"`
	OrganizationID string  `json:"organization_id" validate:"required"`
	Designation    string  `json:"designation"`
	Phone          *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email          *string `json:"email" validate:"omitempty,email"`
}

// seedRow is the outcome of one seed record.
type seedRow struct {
	Index     int    `json:"index"`
	FirstName string `json:"first_name"`
	UserID    string `json:"user_id,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

type seedResult struct {
	Created    int       `json:"created"`
	Duplicates int       `json:"duplicates"`
	Invalid    int       `json:"invalid"`
	Failed     int       `json:"failed"`
	Rows       []seedRow `json:"rows"`
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Bulk-create users from a JSON file or URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagSource,
				Aliases:  []string{"s"},
				Usage:    "Path or http(s) URL of a JSON array of users (required)",
				EnvVars:  []string{"SEED_SOURCE"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    flagOutput,
				Aliases: []string{"o"},
				Usage:   "Report format; supported formats: table, json",
				Value:   "table",
			},
		},
		Action: seed,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", err)
		os.Exit(1)
	}
}

func seed(c *cli.Context) error {
	output := c.String(flagOutput)
	source := c.String(flagSource)

	if output != "table" && output != "json" {
		return errors.Errorf("unknown output format %q", output)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "error loading configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return errors.Wrap(err, "error connecting to database")
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		return errors.Wrap(err, "error running migrations")
	}

	logger.WithField("source", source).Info("Loading seed users")
	users, err := loadSeedUsers(source)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d users", len(users))

	// No cache: the seed run should not populate lookup entries.
	userService := service.NewUserService(
		repository.NewUserRepository(gormDB),
		auth.NewBcryptHasher(cfg.BcryptCost),
		nil,
		0,
	)

	res := seedUsers(c.Context, userService, users, logger)

	logger.WithFields(logrus.Fields{
		"created":    res.Created,
		"duplicates": res.Duplicates,
		"invalid":    res.Invalid,
		"failed":     res.Failed,
	}).Info("Seed completed")

	return printResult(os.Stdout, output, res)
}

// loadSeedUsers reads a JSON array of users from a local file or an http(s) URL.
func loadSeedUsers(source string) ([]SeedUser, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, errors.Wrap(err, "error fetching seed data")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("seed source returned status code: %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrap(err, "error opening seed file")
		}
		r = f
	}
	defer r.Close()

	return decodeSeedUsers(r)
}

func decodeSeedUsers(r io.Reader) ([]SeedUser, error) {
	var users []SeedUser
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, errors.Wrap(err, "error parsing seed data")
	}
	return users, nil
}

// seedUsers creates each user in order, skipping duplicates and invalid records.
func seedUsers(ctx context.Context, svc service.UserService, users []SeedUser, logger logrus.FieldLogger) seedResult {
	res := seedResult{Rows: make([]seedRow, 0, len(users))}
	validate := validation.New()
	for i, su := range users {
		row := seedRow{Index: i, FirstName: su.FirstName}
		entry := logger.WithField("index", i)

		su.Phone = blankToNil(su.Phone)
		su.Email = blankToNil(su.Email)
		if reason := checkSeedUser(validate, su); reason != "" {
			entry.Warnf("skipping user: %s", reason)
			row.Outcome, row.Reason = outcomeInvalid, reason
			res.Invalid++
			res.Rows = append(res.Rows, row)
			continue
		}

		user := &model.User{
			FirstName:      su.FirstName,
			LastName:       su.LastName,
			MiddleName:     su.MiddleName,
			Role:           su.Role,
			OrganizationID: su.OrganizationID,
			Designation:    su.Designation,
			Phone:          su.Phone,
			Email:          su.Email,
		}
		userID, err := svc.CreateUser(ctx, user, su.Password)
		switch {
		case errors.Is(err, apperrors.ErrDuplicateEntry):
			entry.Info("skipping duplicate user")
			row.Outcome, row.Reason = outcomeDuplicate, err.Error()
			res.Duplicates++
		case err != nil:
			entry.WithError(err).Error("failed to create user")
			row.Outcome, row.Reason = outcomeFailed, err.Error()
			res.Failed++
		default:
			entry.WithField("user_id", userID).Debug("user created")
			row.Outcome, row.UserID = outcomeCreated, userID
			res.Created++
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// checkSeedUser returns a short reason naming every failed field, or "" when su is valid.
func checkSeedUser(validate *validator.Validate, su SeedUser) string {
	err := validate.Struct(su)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(reasons, "; ")
}

func printResult(w io.Writer, output string, res seedResult) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(res), "error formatting output")
	}

	table := uitable.New()
	table.AddRow("#", "FIRST NAME", "USER ID", "OUTCOME", "REASON")
	for _, row := range res.Rows {
		table.AddRow(row.Index, row.FirstName, row.UserID, row.Outcome, row.Reason)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\ncreated: %d, duplicates: %d, invalid: %d, failed: %d\n",
		res.Created, res.Duplicates, res.Invalid, res.Failed)
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
