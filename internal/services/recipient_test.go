package services_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/services"
)

func newRecipientService(t *testing.T) (*services.RecipientService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return services.NewRecipientService(mock, zap.NewNop().Sugar()), mock
}

// A recipient registered before ever receiving a contact reference must
// still be selectable: the column comes back as an empty string, not as a
// NULL that breaks the row scan.
func TestListCandidates_ToleratesMissingContactRef(t *testing.T) {
	svc, mock := newRecipientService(t)

	rows := pgxmock.NewRows([]string{"id", "lat", "lng", "contact_ref"}).
		AddRow("user-1", 28.6139, 77.2090, "push:user-1").
		AddRow("user-2", 28.6239, 77.2090, "")

	mock.ExpectQuery(`SELECT id, lat, lng, COALESCE\(contact_ref, ''\)`).
		WillReturnRows(rows)

	candidates, err := svc.ListCandidates(context.Background())
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "user-2", candidates[1].ID)
	assert.Equal(t, "", candidates[1].ContactRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocation_PersistsContactRef(t *testing.T) {
	svc, mock := newRecipientService(t)

	mock.ExpectExec(`INSERT INTO recipients`).
		WithArgs("user-9", 28.61, 77.21, "Connaught Place", "push:user-9").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.UpdateLocation(context.Background(), "user-9", 28.61, 77.21, "Connaught Place", "push:user-9")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocation_EmptyContactRefStillAccepted(t *testing.T) {
	svc, mock := newRecipientService(t)

	mock.ExpectExec(`INSERT INTO recipients`).
		WithArgs("user-9", 28.61, 77.21, "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.UpdateLocation(context.Background(), "user-9", 28.61, 77.21, "", "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
