package sqldantic_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aachurin/sqldantic"
	"github.com/aachurin/sqldantic/sqltype"
)

type Order struct {
	ID        uint `sqld:"primaryKey"`
	Reference uuid.UUID
	Total     decimal.Decimal `sqld:"precision:12;scale:2"`
	Meta      map[string]string
	Status    string `sqld:"default:pending"`
	CreatedAt time.Time
}

type Signup struct {
	ID    uint   `sqld:"primaryKey"`
	Email string `sqld:"required;validate:email"`
}

func TestBindValues(t *testing.T) {
	ctx := context.Background()
	b := mustBase(t)
	b.MustTable(&Order{})

	order := Order{
		Reference: uuid.New(),
		Total:     decimal.NewFromFloat(42.5),
		Meta:      map[string]string{"k": "v"},
	}
	columns, values, err := b.BindValues(ctx, &order)
	if err != nil {
		t.Fatalf("failed to bind values, got error %v", err)
	}

	// the zero autoincrement key is the database's to fill
	wantColumns := []string{"reference", "total", "meta", "status", "created_at"}
	if !reflect.DeepEqual(columns, wantColumns) {
		t.Fatalf("expected columns %v, got %v", wantColumns, columns)
	}
	if values[0] != order.Reference {
		t.Errorf("expected reference %v, got %v", order.Reference, values[0])
	}
	if d, ok := values[1].(decimal.Decimal); !ok || !d.Equal(order.Total) {
		t.Errorf("expected total %v, got %v", order.Total, values[1])
	}
	if values[2] != `{"k":"v"}` {
		t.Errorf("expected encoded meta, got %v", values[2])
	}
	if values[3] != "pending" {
		t.Errorf("expected defaulted status, got %v", values[3])
	}
	if at, ok := values[4].(time.Time); !ok || at.IsZero() {
		t.Errorf("expected stamped created_at, got %v", values[4])
	}

	if _, _, err := b.BindValues(ctx, (*Order)(nil)); !errors.Is(err, sqldantic.ErrInvalidModelType) {
		t.Errorf("expected ErrInvalidModelType for nil pointer, got %v", err)
	}
}

func TestBindValuesValidates(t *testing.T) {
	ctx := context.Background()
	b := mustBase(t)
	b.MustTable(&Signup{})

	_, _, err := b.BindValues(ctx, &Signup{Email: "nope"})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Tag() != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if _, _, err := b.BindValues(ctx, &Signup{Email: "a@b.co"}); err != nil {
		t.Errorf("valid value should bind, got error %v", err)
	}

	relaxed := mustBase(t)
	relaxed.MustTable(&Signup{}, sqldantic.WithModelConfig(sqldantic.ModelConfig{
		SkipValidateOnBind: true,
	}))
	if _, _, err := relaxed.BindValues(ctx, &Signup{Email: "nope"}); err != nil {
		t.Errorf("binding should skip validation when told to, got error %v", err)
	}
}

func TestInsertSQL(t *testing.T) {
	ctx := context.Background()
	b := mustBase(t)
	b.MustTable(&Order{})

	order := Order{
		Reference: uuid.New(),
		Total:     decimal.NewFromFloat(42.5),
		Meta:      map[string]string{"k": "v"},
	}
	query, values, err := b.InsertSQL(ctx, sqltype.Postgres, &order)
	if err != nil {
		t.Fatalf("failed to render insert, got error %v", err)
	}
	want := `INSERT INTO "orders" ("reference","total","meta","status","created_at") VALUES ($1,$2,$3,$4,$5)`
	if query != want {
		t.Errorf("unexpected query:\ngot  %v\nwant %v", query, want)
	}
	if len(values) != 5 {
		t.Errorf("expected 5 arguments, got %v", len(values))
	}

	query, _, err = b.InsertSQL(ctx, sqltype.MySQL, &order)
	if err != nil {
		t.Fatalf("failed to render insert, got error %v", err)
	}
	want = "INSERT INTO `orders` (`reference`,`total`,`meta`,`status`,`created_at`) VALUES (?,?,?,?,?)"
	if query != want {
		t.Errorf("unexpected query:\ngot  %v\nwant %v", query, want)
	}
}

func TestSelectSQL(t *testing.T) {
	b := mustBase(t)
	b.MustTable(&Order{})

	query, err := b.SelectSQL(sqltype.Postgres, &Order{})
	if err != nil {
		t.Fatalf("failed to render select, got error %v", err)
	}
	want := `SELECT "id","reference","total","meta","status","created_at" FROM "orders"`
	if query != want {
		t.Errorf("unexpected query:\ngot  %v\nwant %v", query, want)
	}

	type Memo struct {
		ID   uint `sqld:"primaryKey"`
		Body string
	}
	b.MustModel(&Memo{})
	if _, err := b.SelectSQL(sqltype.Postgres, &Memo{}); !errors.Is(err, sqldantic.ErrNotATable) {
		t.Errorf("expected ErrNotATable, got %v", err)
	}
	if err := b.ScanRow(context.Background(), nil, &Memo{}); !errors.Is(err, sqldantic.ErrNotATable) {
		t.Errorf("expected ErrNotATable, got %v", err)
	}
}

func orderRows(t *testing.T, ref uuid.UUID, at time.Time) (*sql.DB, *sql.Rows) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock database, got error %v", err)
	}
	columns := []string{"id", "reference", "total", "meta", "status", "created_at", "ghost"}
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(columns).
			AddRow(int64(7), ref.String(), "1999.99", `{"k":"v"}`, "paid", at, "dropped"),
	)
	rows, err := db.QueryContext(context.Background(), "SELECT * FROM orders")
	if err != nil {
		t.Fatalf("failed to query mock database, got error %v", err)
	}
	return db, rows
}

func TestScanRow(t *testing.T) {
	ctx := context.Background()
	b := mustBase(t)
	b.MustTable(&Order{})

	ref := uuid.MustParse("8b9e2f0c-2f6b-4f9e-bb1a-5f3fbb0b3c7d")
	at := time.Date(2024, 4, 25, 12, 30, 0, 0, time.UTC)
	db, rows := orderRows(t, ref, at)
	defer db.Close()
	defer rows.Close()

	if !rows.Next() {
		t.Fatalf("expected a row")
	}
	var got Order
	if err := b.ScanRow(ctx, rows, &got); err != nil {
		t.Fatalf("failed to scan row, got error %v", err)
	}
	if got.ID != 7 {
		t.Errorf("expected id 7, got %v", got.ID)
	}
	if got.Reference != ref {
		t.Errorf("expected reference %v, got %v", ref, got.Reference)
	}
	if !got.Total.Equal(decimal.RequireFromString("1999.99")) {
		t.Errorf("expected total 1999.99, got %v", got.Total)
	}
	if !reflect.DeepEqual(got.Meta, map[string]string{"k": "v"}) {
		t.Errorf("expected decoded meta, got %v", got.Meta)
	}
	if got.Status != "paid" {
		t.Errorf("expected status paid, got %v", got.Status)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("expected created_at %v, got %v", at, got.CreatedAt)
	}
}

func TestScanRowValidates(t *testing.T) {
	ctx := context.Background()

	scan := func(t *testing.T, b *sqldantic.Base) error {
		t.Helper()
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to open mock database, got error %v", err)
		}
		defer db.Close()
		mock.ExpectQuery("SELECT").WillReturnRows(
			sqlmock.NewRows([]string{"id", "email"}).AddRow(int64(1), "broken"),
		)
		rows, err := db.QueryContext(ctx, "SELECT * FROM signups")
		if err != nil {
			t.Fatalf("failed to query mock database, got error %v", err)
		}
		defer rows.Close()
		if !rows.Next() {
			t.Fatalf("expected a row")
		}
		var got Signup
		return b.ScanRow(ctx, rows, &got)
	}

	b := mustBase(t)
	b.MustTable(&Signup{})
	err := scan(t, b)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Tag() != "email" {
		t.Errorf("expected email validation error, got %v", err)
	}

	relaxed := mustBase(t)
	relaxed.MustTable(&Signup{}, sqldantic.WithModelConfig(sqldantic.ModelConfig{
		SkipValidateOnScan: true,
	}))
	if err := scan(t, relaxed); err != nil {
		t.Errorf("scanning should skip validation when told to, got error %v", err)
	}
}

func TestScanRows(t *testing.T) {
	ctx := context.Background()
	b := mustBase(t)
	b.MustTable(&Order{})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock database, got error %v", err)
	}
	defer db.Close()

	at := time.Date(2024, 4, 25, 12, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow(int64(1), "paid", at).
			AddRow(int64(2), "pending", at),
	)
	rows, err := db.QueryContext(ctx, "SELECT * FROM orders")
	if err != nil {
		t.Fatalf("failed to query mock database, got error %v", err)
	}
	defer rows.Close()

	var got []Order
	if err := b.ScanRows(ctx, rows, &got); err != nil {
		t.Fatalf("failed to scan rows, got error %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 || got[1].Status != "pending" {
		t.Errorf("unexpected models %+v", got)
	}

	if err := b.ScanRows(ctx, rows, got); !errors.Is(err, sqldantic.ErrInvalidModelType) {
		t.Errorf("expected ErrInvalidModelType for non-pointer, got %v", err)
	}
}
