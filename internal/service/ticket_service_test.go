package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/status"
)

type recordingNotifier struct {
	calls []string
	fail  error
}

func (n *recordingNotifier) NotifyAssignment(_ context.Context, t *models.Ticket, m *models.Master) error {
	n.calls = append(n.calls, t.Number+"->"+m.Name)
	return n.fail
}

func newTicketService(t *testing.T, hub realtime.Broadcaster, opts ...TicketOption) (*TicketService, *repository.MasterSQLRepository) {
	t.Helper()
	db := newTestDB(t)
	masters := repository.NewMasterRepository(db)
	svc := NewTicketService(
		repository.NewTicketRepository(db),
		repository.NewHistoryRepository(db),
		masters,
		hub,
		opts...,
	)
	return svc, masters
}

func TestCreateDefaultsToCreatedAndBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	svc, _ := newTicketService(t, hub)
	ctx := context.Background()

	tk, err := svc.Create(ctx, &CreateInput{
		CustomerName:  "Dilnoza Karimova",
		CustomerPhone: "+998901112233",
		Issue:         "fridge not cooling",
	})
	require.NoError(t, err)
	assert.Equal(t, status.Created, tk.Status)
	assert.NotEmpty(t, tk.Number)

	got, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk.Number, got.Number)
	assert.Equal(t, tk.Status, got.Status)

	assert.Len(t, hub.byType(realtime.EventTicketCreated), 1)

	entries, err := svc.History(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryActionCreated, entries[0].Action)
}

// collidingTickets simulates a concurrent create grabbing the computed
// number first: the initial inserts fail as duplicates.
type collidingTickets struct {
	repository.TicketRepository
	rejects int
	numbers []string
}

func (r *collidingTickets) Create(ctx context.Context, tk *models.Ticket) error {
	r.numbers = append(r.numbers, tk.Number)
	if r.rejects > 0 {
		r.rejects--
		return repository.ErrDuplicate
	}
	return r.TicketRepository.Create(ctx, tk)
}

func TestCreateRetriesOnDuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	tickets := &collidingTickets{TicketRepository: repository.NewTicketRepository(db), rejects: 2}
	svc := NewTicketService(tickets, repository.NewHistoryRepository(db), repository.NewMasterRepository(db), &recordingHub{})

	tk, err := svc.Create(context.Background(), &CreateInput{
		CustomerName:  "A",
		CustomerPhone: "+998900000000",
		Issue:         "x",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tk.Number)
	assert.Len(t, tickets.numbers, 3, "create must recompute the number on each duplicate")
}

func TestCreateGivesUpAfterRepeatedDuplicates(t *testing.T) {
	db := newTestDB(t)
	tickets := &collidingTickets{TicketRepository: repository.NewTicketRepository(db), rejects: 10}
	svc := NewTicketService(tickets, repository.NewHistoryRepository(db), repository.NewMasterRepository(db), &recordingHub{})

	_, err := svc.Create(context.Background(), &CreateInput{
		CustomerName:  "A",
		CustomerPhone: "+998900000000",
		Issue:         "x",
	})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
}

func TestCreateAcceptsLegacyStatusAlias(t *testing.T) {
	svc, _ := newTicketService(t, &recordingHub{})
	tk, err := svc.Create(context.Background(), &CreateInput{
		CustomerName:  "A",
		CustomerPhone: "+998900000000",
		Issue:         "x",
		Status:        "new",
	})
	require.NoError(t, err)
	assert.Equal(t, status.Created, tk.Status)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTicketService(t, &recordingHub{})
	_, err := svc.Create(context.Background(), &CreateInput{
		CustomerName:  "A",
		CustomerPhone: "+998900000000",
		Issue:         "x",
		Status:        "frozen",
	})
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestChangeStatusBroadcastsEveryCall(t *testing.T) {
	hub := &recordingHub{}
	svc, _ := newTicketService(t, hub)
	ctx := context.Background()

	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	// same value twice: storage unchanged, but both calls broadcast
	_, err = svc.ChangeStatus(ctx, tk.ID, status.InProgress, nil)
	require.NoError(t, err)
	got, err := svc.ChangeStatus(ctx, tk.ID, status.InProgress, nil)
	require.NoError(t, err)

	assert.Equal(t, status.InProgress, got.Status)
	assert.Len(t, hub.byType(realtime.EventTicketUpdated), 2)
}

func TestChangeStatusRejectsUnknownValue(t *testing.T) {
	svc, _ := newTicketService(t, &recordingHub{})
	ctx := context.Background()
	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, tk.ID, "payment_pending_forever", nil)
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	got, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Created, got.Status, "rejected update must not change storage")
}

func TestAssignNotifiesMaster(t *testing.T) {
	hub := &recordingHub{}
	notifier := &recordingNotifier{}
	svc, masters := newTicketService(t, hub, WithAssignmentNotifier(notifier))
	ctx := context.Background()

	m := &models.Master{Name: "Bobur Alimov", Phone: "+998935554433"}
	require.NoError(t, masters.Create(ctx, m))

	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	got, err := svc.Assign(ctx, tk.ID, m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, status.Assigned, got.Status)
	require.NotNil(t, got.MasterID)
	assert.Equal(t, m.ID, *got.MasterID)
	require.Len(t, notifier.calls, 1)
	assert.Contains(t, notifier.calls[0], "Bobur Alimov")
}

func TestAssignSurvivesNotifierFailure(t *testing.T) {
	notifier := &recordingNotifier{fail: errors.New("telegram down")}
	svc, masters := newTicketService(t, &recordingHub{}, WithAssignmentNotifier(notifier))
	ctx := context.Background()

	m := &models.Master{Name: "Bobur Alimov"}
	require.NoError(t, masters.Create(ctx, m))
	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	got, err := svc.Assign(ctx, tk.ID, m.ID, nil)
	require.NoError(t, err, "notification failure must not fail the assignment")
	assert.Equal(t, status.Assigned, got.Status)
}

func TestAcceptAndRejectAssignment(t *testing.T) {
	svc, masters := newTicketService(t, &recordingHub{})
	ctx := context.Background()

	m := &models.Master{Name: "Bobur Alimov"}
	require.NoError(t, masters.Create(ctx, m))
	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	accepted, err := svc.AcceptAssignment(ctx, tk.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Accepted, accepted.Status)
	require.NotNil(t, accepted.MasterID)

	rejected, err := svc.RejectAssignment(ctx, tk.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Created, rejected.Status)
	assert.Nil(t, rejected.MasterID)
}

func TestDeleteBroadcastsAndRemoves(t *testing.T) {
	hub := &recordingHub{}
	svc, _ := newTicketService(t, hub)
	ctx := context.Background()

	tk, err := svc.Create(ctx, &CreateInput{CustomerName: "A", CustomerPhone: "+998900000000", Issue: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tk.ID, nil))
	assert.Len(t, hub.byType(realtime.EventTicketDeleted), 1)

	_, err = svc.Get(ctx, tk.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
