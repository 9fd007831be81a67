package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftrelo/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertJobs(ctx context.Context, jobs []models.Job) (int64, error) {
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []any{
			j.ID, j.CreatedAt, j.Location.Lat, j.Location.Lon, j.Location.Address,
			j.Services, j.CrewSize, j.PreferredDate, j.Flexibility, j.Priority,
			j.LivingAreaM2, j.PropertyClass, j.VolumeM3, j.DistanceKm, j.Traffic,
			j.Origin.Floors, j.Origin.Elevator, j.Origin.ParkingDistM,
			j.Destination.Floors, j.Destination.Elevator, j.Destination.ParkingDistM,
			j.HasPiano, j.HasFragile, j.HasHeavy,
		})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"jobs"}, []string{
		"id", "created_at", "lat", "lon", "address",
		"services", "crew_size", "preferred_date", "flexibility", "priority",
		"living_area_m2", "property_class", "volume_m3", "distance_km", "traffic",
		"origin_floors", "origin_elevator", "origin_parking_m",
		"dest_floors", "dest_elevator", "dest_parking_m",
		"has_piano", "has_fragile", "has_heavy",
	}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) InsertCrews(ctx context.Context, crews []models.Crew) (int64, error) {
	rows := make([][]any, 0, len(crews))
	for _, c := range crews {
		rows = append(rows, []any{
			c.ID, c.Name, c.Size, c.HomeBase.Lat, c.HomeBase.Lon, c.HomeBase.Address,
			c.Skills, c.VehicleCapacity, c.ShiftStartHour, c.ShiftEndHour, c.Rating, c.UpdatedAt,
		})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"crews"}, []string{
		"id", "name", "size", "lat", "lon", "address",
		"skills", "vehicle_capacity_m3", "shift_start_hour", "shift_end_hour", "rating", "updated_at",
	}, pgx.CopyFromRows(rows))
	return copyCount, err
}

const jobColumns = `id, created_at, lat, lon, address,
	services, crew_size, preferred_date, flexibility, priority,
	living_area_m2, property_class, volume_m3, distance_km, traffic,
	origin_floors, origin_elevator, origin_parking_m,
	dest_floors, dest_elevator, dest_parking_m,
	has_piano, has_fragile, has_heavy`

func scanJob(row pgx.Row) (models.Job, error) {
	var j models.Job
	err := row.Scan(
		&j.ID, &j.CreatedAt, &j.Location.Lat, &j.Location.Lon, &j.Location.Address,
		&j.Services, &j.CrewSize, &j.PreferredDate, &j.Flexibility, &j.Priority,
		&j.LivingAreaM2, &j.PropertyClass, &j.VolumeM3, &j.DistanceKm, &j.Traffic,
		&j.Origin.Floors, &j.Origin.Elevator, &j.Origin.ParkingDistM,
		&j.Destination.Floors, &j.Destination.Elevator, &j.Destination.ParkingDistM,
		&j.HasPiano, &j.HasFragile, &j.HasHeavy,
	)
	return j, err
}

func (s *Store) ListJobs(ctx context.Context, priority string, flexibility string, limit, offset int) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	var wheres []string
	if priority != "" {
		args = append(args, priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if flexibility != "" {
		args = append(args, flexibility)
		wheres = append(wheres, fmt.Sprintf("flexibility = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY preferred_date ASC, id ASC"
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	return scanJob(row)
}

// GetJobsForScheduling returns jobs without a scheduling result yet, oldest
// preferred date first.
func (s *Store) GetJobsForScheduling(ctx context.Context) ([]models.Job, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		LEFT JOIN scheduling_results r ON r.job_id = j.id
		WHERE r.job_id IS NULL
		ORDER BY j.preferred_date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) ListCrews(ctx context.Context, skill string, minSize int) ([]models.Crew, error) {
	query := `SELECT id, name, size, lat, lon, address, skills, vehicle_capacity_m3, shift_start_hour, shift_end_hour, rating, updated_at FROM crews`
	var args []any
	var wheres []string
	if skill != "" {
		args = append(args, skill)
		wheres = append(wheres, fmt.Sprintf("$%d = ANY(skills)", len(args)))
	}
	if minSize > 0 {
		args = append(args, minSize)
		wheres = append(wheres, fmt.Sprintf("size >= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY rating DESC, id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Crew
	for rows.Next() {
		var c models.Crew
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Size, &c.HomeBase.Lat, &c.HomeBase.Lon, &c.HomeBase.Address,
			&c.Skills, &c.VehicleCapacity, &c.ShiftStartHour, &c.ShiftEndHour, &c.Rating, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCrew(ctx context.Context, crewID string) (models.Crew, error) {
	var c models.Crew
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, size, lat, lon, address, skills, vehicle_capacity_m3, shift_start_hour, shift_end_hour, rating, updated_at
		FROM crews WHERE id = $1
	`, crewID).Scan(
		&c.ID, &c.Name, &c.Size, &c.HomeBase.Lat, &c.HomeBase.Lon, &c.HomeBase.Address,
		&c.Skills, &c.VehicleCapacity, &c.ShiftStartHour, &c.ShiftEndHour, &c.Rating, &c.UpdatedAt,
	)
	return c, err
}

// CrewBookedHours sums persisted bookings for one crew on one calendar date.
func (s *Store) CrewBookedHours(ctx context.Context, crewID string, date time.Time) (float64, error) {
	var hours float64
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_hours), 0) FROM bookings
		WHERE crew_id = $1 AND date = $2
	`, crewID, date.Format("2006-01-02")).Scan(&hours)
	return hours, err
}

func (s *Store) InsertBooking(ctx context.Context, tx pgx.Tx, b models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (id, crew_id, job_id, date, duration_hours, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, b.ID, b.CrewID, b.JobID, b.Date.Format("2006-01-02"), b.DurationHours, time.Now().UTC())
	return err
}

func (s *Store) UpsertSchedulingResult(ctx context.Context, tx pgx.Tx, r models.SchedulingResult, status string, reasonCode string, reasoning []byte) error {
	var crewID *string
	if r.CrewID != "" {
		crewID = &r.CrewID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO scheduling_results (job_id, crew_id, date, start_hour, end_hour, travel_minutes, duration_hours, efficiency, score, status, reason_code, reasoning, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (job_id) DO UPDATE SET
			crew_id = EXCLUDED.crew_id,
			date = EXCLUDED.date,
			start_hour = EXCLUDED.start_hour,
			end_hour = EXCLUDED.end_hour,
			travel_minutes = EXCLUDED.travel_minutes,
			duration_hours = EXCLUDED.duration_hours,
			efficiency = EXCLUDED.efficiency,
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			reason_code = EXCLUDED.reason_code,
			reasoning = EXCLUDED.reasoning,
			created_at = EXCLUDED.created_at
	`, r.JobID, crewID, r.Date, r.StartHour, r.EndHour, r.TravelMinutes, r.DurationHours, r.Efficiency, r.Score, status, reasonCode, reasoning, time.Now().UTC())
	return err
}

func (s *Store) GetJobDetails(ctx context.Context, jobID string) (map[string]any, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result := map[string]any{"job": job}

	row := s.Pool.QueryRow(ctx, `
		SELECT crew_id, date, start_hour, end_hour, travel_minutes, duration_hours, efficiency, score, status, reason_code, reasoning, created_at
		FROM scheduling_results WHERE job_id = $1
	`, jobID)
	var (
		crewID     *string
		date       *time.Time
		startHour  *int
		endHour    *int
		travelMin  *float64
		duration   *float64
		efficiency *float64
		score      *float64
		status     *string
		reasonCode *string
		reasoning  []byte
		createdAt  *time.Time
	)
	if err := row.Scan(&crewID, &date, &startHour, &endHour, &travelMin, &duration, &efficiency, &score, &status, &reasonCode, &reasoning, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, nil
		}
		return nil, err
	}

	result["scheduling"] = map[string]any{
		"crew_id":        crewID,
		"date":           date,
		"start_hour":     startHour,
		"end_hour":       endHour,
		"travel_minutes": travelMin,
		"duration_hours": duration,
		"efficiency":     efficiency,
		"score":          score,
		"status":         status,
		"reason_code":    reasonCode,
		"reasoning":      reasoning,
		"created_at":     createdAt,
	}
	return result, nil
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, NOW())`, id, status)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		id       string
		started  time.Time
		finished *time.Time
		status   string
		summary  []byte
	)
	if err := row.Scan(&id, &started, &finished, &status, &summary); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          id,
		"started_at":  started,
		"finished_at": finished,
		"status":      status,
		"summary":     summary,
	}, nil
}
