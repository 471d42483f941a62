package appointment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, token_no, patient_id, patient_name, doctor_id, appt_date, appt_time, status,
	consultation_charge, diagnosis, follow_up_details, prescriptions_url, to_be_admitted,
	refer_to_another_doctor, referred_doctor_id, transfer_to_ward, transfer_target,
	transfer_details, bill_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.TokenNo, &a.PatientID, &a.PatientName, &a.DoctorID, &a.Date, &a.Time,
		&a.Status, &a.ConsultationCharge, &a.Diagnosis, &a.FollowUpDetails, &a.PrescriptionsURL,
		&a.ToBeAdmitted, &a.ReferToAnotherDoctor, &a.ReferredDoctorID, &a.TransferToWard,
		&a.TransferTarget, &a.TransferDetails, &a.BillID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func insertAppointment(ctx context.Context, tx pgx.Tx, a *Appointment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO appointment (`+apptCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NOW(),NOW())`,
		a.ID, a.TokenNo, a.PatientID, a.PatientName, a.DoctorID, a.Date, a.Time, a.Status,
		a.ConsultationCharge, a.Diagnosis, a.FollowUpDetails, a.PrescriptionsURL, a.ToBeAdmitted,
		a.ReferToAnotherDoctor, a.ReferredDoctorID, a.TransferToWard, a.TransferTarget,
		a.TransferDetails, a.BillID)
	return err
}

func (r *repoPG) CreateAppointment(ctx context.Context, a *Appointment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertAppointment(ctx, tx, a)
	})
}

func (r *repoPG) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointment ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) UpdateAppointment(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment SET patient_name=$2, doctor_id=$3, appt_date=$4, appt_time=$5, status=$6,
			consultation_charge=$7, diagnosis=$8, follow_up_details=$9, prescriptions_url=$10,
			to_be_admitted=$11, refer_to_another_doctor=$12, referred_doctor_id=$13,
			transfer_to_ward=$14, transfer_target=$15, transfer_details=$16, bill_id=$17,
			updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientName, a.DoctorID, a.Date, a.Time, a.Status, a.ConsultationCharge,
		a.Diagnosis, a.FollowUpDetails, a.PrescriptionsURL, a.ToBeAdmitted,
		a.ReferToAnotherDoctor, a.ReferredDoctorID, a.TransferToWard, a.TransferTarget,
		a.TransferDetails, a.BillID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CreateWithToken(ctx context.Context, a *Appointment, t *Token) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertAppointment(ctx, tx, a); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO token (token_number, patient_name, patient_phone, doctor_id, doctor_name,
				issue_time, status, is_follow_up)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.TokenNumber, t.PatientName, t.PatientPhone, t.DoctorID, t.DoctorName,
			t.IssueTime, t.Status, t.IsFollowUp)
		return err
	})
}

func (r *repoPG) ApplyReferral(ctx context.Context, update *Appointment, sibling *Appointment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE appointment SET status=$2, refer_to_another_doctor=$3, referred_doctor_id=$4,
				diagnosis=$5, consultation_charge=$6, updated_at=NOW()
			WHERE id = $1`,
			update.ID, update.Status, update.ReferToAnotherDoctor, update.ReferredDoctorID,
			update.Diagnosis, update.ConsultationCharge)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return insertAppointment(ctx, tx, sibling)
	})
}

func (r *repoPG) GetToken(ctx context.Context, number string) (*Token, error) {
	var t Token
	err := r.pool.QueryRow(ctx, `
		SELECT token_number, patient_name, patient_phone, doctor_id, doctor_name, issue_time, status, is_follow_up
		FROM token WHERE token_number = $1`, number).
		Scan(&t.TokenNumber, &t.PatientName, &t.PatientPhone, &t.DoctorID, &t.DoctorName,
			&t.IssueTime, &t.Status, &t.IsFollowUp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) ListTokens(ctx context.Context) ([]*Token, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token_number, patient_name, patient_phone, doctor_id, doctor_name, issue_time, status, is_follow_up
		FROM token ORDER BY issue_time, token_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.TokenNumber, &t.PatientName, &t.PatientPhone, &t.DoctorID,
			&t.DoctorName, &t.IssueTime, &t.Status, &t.IsFollowUp); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *repoPG) UpdateTokenStatus(ctx context.Context, number string, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE token SET status = $2 WHERE token_number = $1`, number, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) AnyForPatient(ctx context.Context, patientID string) (bool, error) {
	var referenced bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointment WHERE patient_id = $1)`, patientID).Scan(&referenced)
	return referenced, err
}

func (r *repoPG) TokenNoInUse(ctx context.Context, number string) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointment WHERE token_no = $1)
			OR EXISTS (SELECT 1 FROM token WHERE token_number = $1)`, number).Scan(&inUse)
	return inUse, err
}
