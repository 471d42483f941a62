package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `patient_id, patient_number, given_name, family_name, phone,
	age, gender, address, complaint, status, registered_by, created_at, updated_at`

func scanPatient(row pgx.Row) (*PatientRecord, error) {
	var p PatientRecord
	err := row.Scan(&p.PatientID, &p.PatientNumber, &p.GivenName, &p.FamilyName, &p.Phone,
		&p.Age, &p.Gender, &p.Address, &p.Complaint, &p.Status, &p.RegisteredBy,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *PatientRecord) error {
	if p.Status == "" {
		p.Status = StatusActive
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (patient_id, patient_number, given_name, family_name, phone,
			age, gender, address, complaint, status, registered_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.PatientID, p.PatientNumber, p.GivenName, p.FamilyName, p.Phone,
		p.Age, p.Gender, p.Address, p.Complaint, p.Status, p.RegisteredBy)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*PatientRecord, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE patient_id = $1`, id))
}

func (r *patientRepoPG) FindByPhone(ctx context.Context, phone string) (*PatientRecord, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE phone = $1 ORDER BY created_at LIMIT 1`, phone))
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PatientRecord
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Update(ctx context.Context, p *PatientRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET patient_number=$2, given_name=$3, family_name=$4, phone=$5,
			age=$6, gender=$7, address=$8, complaint=$9, status=$10, updated_at=NOW()
		WHERE patient_id = $1`,
		p.PatientID, p.PatientNumber, p.GivenName, p.FamilyName, p.Phone,
		p.Age, p.Gender, p.Address, p.Complaint, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE patient_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
