package journal

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/broker"
	"main/internal/schema"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// Option defines connection options for the Postgres journal.
type Option struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	Params     map[string]string
	ConnString string
	Config     *gorm.Config
}

// OrderRecord is the persisted snapshot of one broker order. It is
// upserted on every lifecycle event, so the table always holds the last
// known state per order.
type OrderRecord struct {
	OrderID    uint64          `gorm:"primaryKey"`
	Instrument string          `gorm:"index"`
	OrderType  string
	Status     string
	Quantity   decimal.Decimal `gorm:"type:numeric"`
	Filled     decimal.Decimal `gorm:"type:numeric"`
	LimitPrice decimal.Decimal `gorm:"type:numeric"`
	LastEvent  string
	UpdatedAt  time.Time
}

// Writer persists order lifecycle events.
type Writer struct {
	opt  Option
	meta *schema.Registry
	db   *gorm.DB
}

// Open connects to Postgres and migrates the journal table.
func Open(opt Option, meta *schema.Registry) (*Writer, error) {
	connString, err := opt.dsn()
	if err != nil {
		return nil, err
	}
	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}
	db, err := gorm.Open(postgres.Open(connString), config)
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}
	if err := db.AutoMigrate(&OrderRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate journal")
	}
	return &Writer{opt: opt, meta: meta, db: db}, nil
}

// Record upserts the order snapshot carried by a broker event.
func (w *Writer) Record(ev broker.Event) error {
	record := w.toRecord(ev)
	return w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

// Close closes the underlying connection pool.
func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (w *Writer) toRecord(ev broker.Event) OrderRecord {
	return OrderRecord{
		OrderID:    ev.OrderID,
		Instrument: w.meta.Name(ev.Symbol),
		OrderType:  ev.Type.String(),
		Status:     ev.Status.String(),
		Quantity:   ev.Quantity,
		Filled:     ev.Filled,
		LimitPrice: ev.LimitPrice,
		LastEvent:  ev.Kind.String(),
		UpdatedAt:  time.Now().UTC(),
	}
}

func (opt Option) dsn() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database == "" {
		return "", fmt.Errorf("journal database is empty")
	}
	u.Path = "/" + opt.Database

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
