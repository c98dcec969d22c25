package pgconv

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func Int32PtrFromPgtype(pi pgtype.Int4) *int32 {
	if !pi.Valid {
		return nil
	}
	return &pi.Int32
}

func StringPtrFromPgtype(pt pgtype.Text) *string {
	if !pt.Valid || pt.String == "" {
		return nil
	}
	return &pt.String
}

func TimePtrFromPgtype(pt pgtype.Timestamptz) *time.Time {
	if !pt.Valid {
		return nil
	}
	return &pt.Time
}
