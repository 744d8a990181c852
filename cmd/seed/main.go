package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finhub/internal/cache"
	"finhub/internal/config"
	"finhub/internal/db"
	apperrors "finhub/internal/errors"
	"finhub/internal/logger"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
	"finhub/internal/service"
)

// Fixture is the seed file format.
type Fixture struct {
	CompanyID    string               `json:"company_id"`
	Banks        []FixtureBank        `json:"banks"`
	Transactions []FixtureTransaction `json:"transactions"`
}

// FixtureBank is a bank account to create.
type FixtureBank struct {
	BankName       string          `json:"bank_name"`
	IFSCCode       string          `json:"ifsc_code"`
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

// FixtureTransaction is a ledger entry; Account names a bank of the company.
type FixtureTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Account     string          `json:"account"`
	Client      string          `json:"client"`
	Vendor      string          `json:"vendor"`
	Invoice     string          `json:"invoice"`
	Department  string          `json:"department"`
	PaymentID   string          `json:"payment_id"`
}

type report struct {
	BanksCreated  int
	BanksExisting int
	Transactions  int
	Rejected      int
}

func main() {
	fixturePath := flag.String("fixture", "", "path or http(s) URL of the JSON fixture")
	companyID := flag.String("company", "", "company id to seed into (overrides the fixture)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).Named("seed")
	defer func() { _ = zl.Sync() }()

	if *fixturePath == "" {
		zl.Fatal("missing -fixture")
	}

	fx, err := loadFixture(*fixturePath)
	if err != nil {
		zl.Fatal("load fixture", zap.Error(err))
	}
	if *companyID != "" {
		fx.CompanyID = *companyID
	}
	zl.Info("fixture loaded",
		zap.String("company_id", fx.CompanyID),
		zap.Int("banks", len(fx.Banks)),
		zap.Int("transactions", len(fx.Transactions)),
	)

	gormDB, err := db.Open(cfg.DatabaseURL, db.Options{LogLevel: cfg.LogLevel}, zl)
	if err != nil {
		zl.Fatal("connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("run migrations", zap.Error(err))
	}

	cacheClient := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB}, zl)
	defer func() { _ = cacheClient.Close() }()

	store := repository.NewStore(gormDB)
	ctx := context.Background()
	if _, err := store.Companies().FindByCompanyID(ctx, fx.CompanyID); err != nil {
		zl.Fatal("unknown company", zap.String("company_id", fx.CompanyID), zap.Error(err))
	}

	rep, err := seed(ctx,
		service.NewBankService(store, zl),
		service.NewLedgerService(store, cacheClient, service.NewMoneyFormatter(cfg.Currency), zl),
		fx, zl)
	if err != nil {
		zl.Fatal("seed", zap.Error(err))
	}

	zl.Info("seed completed",
		zap.Int("banks_created", rep.BanksCreated),
		zap.Int("banks_existing", rep.BanksExisting),
		zap.Int("transactions", rep.Transactions),
		zap.Int("rejected", rep.Rejected),
	)
}

// seed creates the fixture's banks and transactions through the services, as
// an owner of the company. Transactions the ledger rejects are logged and
// counted; any other failure aborts.
func seed(ctx context.Context, banks service.BankService, ledger service.LedgerService, fx *Fixture, log *zap.Logger) (report, error) {
	var rep report
	caller := &policy.Caller{Role: model.RoleOwner, CompanyID: fx.CompanyID, Active: true, Approved: true}

	for _, b := range fx.Banks {
		_, err := banks.Create(ctx, caller, service.BankInput{
			BankName:       b.BankName,
			IFSCCode:       b.IFSCCode,
			AccountNumber:  b.AccountNumber,
			AccountType:    model.AccountType(b.AccountType),
			CurrentBalance: b.CurrentBalance,
		})
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindConflict {
				rep.BanksExisting++
				continue
			}
			return rep, fmt.Errorf("create bank %s: %w", b.BankName, err)
		}
		rep.BanksCreated++
	}

	for i, t := range fx.Transactions {
		date, err := parseDate(t.Date)
		if err != nil {
			return rep, fmt.Errorf("transaction %d: invalid date %q", i, t.Date)
		}
		_, err = ledger.Create(ctx, caller, service.TransactionInput{
			Date:        date,
			Description: t.Description,
			Category:    model.Category(t.Category),
			Direction:   model.Direction(t.Type),
			Amount:      t.Amount,
			Status:      model.TransactionStatus(t.Status),
			Account:     t.Account,
			Client:      t.Client,
			Vendor:      t.Vendor,
			Invoice:     t.Invoice,
			Department:  model.Department(t.Department),
			PaymentID:   t.PaymentID,
		})
		if err == nil {
			rep.Transactions++
			continue
		}
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return rep, fmt.Errorf("transaction %d: %w", i, err)
		}
		log.Warn("transaction rejected", zap.Int("index", i), zap.String("description", t.Description), zap.Error(err))
		rep.Rejected++
	}
	return rep, nil
}

func loadFixture(src string) (*Fixture, error) {
	var r io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(src)
		if err != nil {
			return nil, fmt.Errorf("fetch fixture: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch fixture: status code %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if fx.CompanyID == "" {
		return nil, fmt.Errorf("fixture has no company_id")
	}
	return &fx, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
