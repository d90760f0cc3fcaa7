package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"storefront-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zlib"
)

// RateRepo implements ports.RateSnapshotRepository. Rate tables are stored
// as zlib-compressed JSON.
type RateRepo struct {
	pool Pool
}

// NewRateRepo creates a new RateRepo.
func NewRateRepo(pool Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

// Insert stores a new snapshot. Rows are never updated.
func (r *RateRepo) Insert(ctx context.Context, s domain.RateSnapshot) error {
	blob, err := compressRates(s.Rates)
	if err != nil {
		return err
	}

	query := `INSERT INTO currency_rates (id, timestamp, base, rates) VALUES ($1, $2, $3, $4)`
	if _, err := r.pool.Exec(ctx, query, uuid.New(), s.Timestamp, s.Base, blob); err != nil {
		return fmt.Errorf("insert rate snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot by timestamp.
func (r *RateRepo) Latest(ctx context.Context) (*domain.RateSnapshot, error) {
	query := `SELECT timestamp, base, rates FROM currency_rates ORDER BY timestamp DESC LIMIT 1`

	var (
		ts   time.Time
		base string
		blob []byte
	)
	if err := r.pool.QueryRow(ctx, query).Scan(&ts, &base, &blob); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest rate snapshot: %w", err)
	}

	rates, err := decompressRates(blob)
	if err != nil {
		return nil, err
	}
	s := domain.NewRateSnapshot(ts, base, rates)
	return &s, nil
}

func compressRates(rates map[string]float64) ([]byte, error) {
	raw, err := json.Marshal(rates)
	if err != nil {
		return nil, fmt.Errorf("encode rates: %w", err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress rates: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress rates: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressRates(blob []byte) (map[string]float64, error) {
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress rates: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress rates: %w", err)
	}
	var rates map[string]float64
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return rates, nil
}
