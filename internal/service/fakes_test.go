package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/realtime"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// In-memory collaborators backing the service tests. Each fake keeps the
// same not-found contract as the real repositories: a bare pgx.ErrNoRows.

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCategoryRepo struct {
	categories   map[string]*domain.Category
	ticketCounts map[string]int64
	seq          int
}

func newFakeCategoryRepo(categories ...*domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{
		categories:   make(map[string]*domain.Category),
		ticketCounts: make(map[string]int64),
	}
	for _, c := range categories {
		repo.categories[c.ID] = c
	}
	return repo
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.seq++
	category.ID = fmt.Sprintf("cat-%d", r.seq)
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	copied.TicketsCount = r.ticketCounts[id]
	return &copied, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(r.categories))
	for id, c := range r.categories {
		copied := *c
		copied.TicketsCount = r.ticketCounts[id]
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.categories, id)
	return nil
}

func (r *fakeCategoryRepo) NameTaken(_ context.Context, name, excludeID string) (bool, error) {
	for id, c := range r.categories {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCategoryRepo) CountTickets(_ context.Context, id string) (int64, error) {
	return r.ticketCounts[id], nil
}

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	order   []string
	seq     int
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
		repo.order = append(repo.order, t.ID)
	}
	return repo
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetDetail(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTicketRepo) matches(ticket *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.UserID != nil && ticket.UserID != *filter.UserID {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
		return false
	}
	return true
}

// List returns newest-created-first like the real query.
func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket, ok := r.tickets[r.order[i]]
		if !ok || !r.matches(ticket, filter) {
			continue
		}
		all = append(all, *ticket)
	}
	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *fakeTicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int64, error) {
	var count int64
	for _, ticket := range r.tickets {
		if r.matches(ticket, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, userID *string) (repository.StatusCounts, error) {
	var counts repository.StatusCounts
	for _, ticket := range r.tickets {
		if userID != nil && ticket.UserID != *userID {
			continue
		}
		counts.Total++
		switch ticket.Status {
		case domain.TicketStatusOpen:
			counts.Open++
		case domain.TicketStatusInProgress:
			counts.InProgress++
		case domain.TicketStatusResolved:
			counts.Resolved++
		}
	}
	return counts, nil
}

type fakeCommentRepo struct {
	comments map[string]*domain.Comment
	order    []string
	seq      int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	copied := *comment
	r.comments[comment.ID] = &copied
	r.order = append(r.order, comment.ID)
	return nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *domain.Comment) error {
	if _, ok := r.comments[comment.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *comment
	r.comments[comment.ID] = &copied
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *comment
	return &copied, nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, order repository.CommentOrder) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, id := range r.order {
		comment, ok := r.comments[id]
		if !ok || comment.TicketID != ticketID {
			continue
		}
		out = append(out, *comment)
	}
	if order == repository.CommentOrderNewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}

type fakeMessageRepo struct {
	messages map[string]*domain.Message
	order    []string
	seq      int

	// ticketOwners and ticketAssignees stand in for the joins the real
	// unread queries perform; tests fill them alongside ticket fixtures.
	ticketOwners    map[string]string
	ticketAssignees map[string]string
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:        make(map[string]*domain.Message),
		ticketOwners:    make(map[string]string),
		ticketAssignees: make(map[string]string),
	}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	msg.CreatedAt = time.Now()
	copied := *msg
	r.messages[msg.ID] = &copied
	r.order = append(r.order, msg.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	msg, ok := r.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *msg
	return &copied, nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, id := range r.order {
		msg, ok := r.messages[id]
		if !ok || msg.TicketID != ticketID {
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkReadForOthers(_ context.Context, ticketID, readerID string) error {
	for _, msg := range r.messages {
		if msg.TicketID == ticketID && msg.UserID != readerID {
			msg.IsRead = true
		}
	}
	return nil
}

// unreadFor counts unread messages over tickets selected by keep, excluding
// the principal's own messages, mirroring the badge queries.
func (r *fakeMessageRepo) unreadFor(principalID string, keep func(*domain.Message) bool) int64 {
	var count int64
	for _, msg := range r.messages {
		if !msg.IsRead && msg.UserID != principalID && keep(msg) {
			count++
		}
	}
	return count
}

func (r *fakeMessageRepo) UnreadCountForOwner(_ context.Context, userID string) (int64, error) {
	return r.unreadFor(userID, func(msg *domain.Message) bool {
		return r.ticketOwners[msg.TicketID] == userID
	}), nil
}

func (r *fakeMessageRepo) UnreadCountForAssignee(_ context.Context, adminID string) (int64, error) {
	return r.unreadFor(adminID, func(msg *domain.Message) bool {
		return r.ticketAssignees[msg.TicketID] == adminID
	}), nil
}

type fakeAttachmentStore struct {
	stored  map[string][]byte
	removed []string
	seq     int
}

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{stored: make(map[string][]byte)}
}

func (s *fakeAttachmentStore) Store(_ context.Context, filename string, content io.Reader) (string, error) {
	s.seq++
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	relPath := fmt.Sprintf("tickets/file-%d-%s", s.seq, filename)
	s.stored[relPath] = data
	return relPath, nil
}

func (s *fakeAttachmentStore) Remove(_ context.Context, relPath string) error {
	delete(s.stored, relPath)
	s.removed = append(s.removed, relPath)
	return nil
}

func (s *fakeAttachmentStore) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	data, ok := s.stored[relPath]
	if !ok {
		return nil, fmt.Errorf("attachment %s not found", relPath)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type publishedEvent struct {
	channel string
	event   realtime.MessageEvent
}

type fakeBroker struct {
	published []publishedEvent
	failWith  error
}

func (b *fakeBroker) Publish(_ context.Context, channel string, event realtime.MessageEvent) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.published = append(b.published, publishedEvent{channel: channel, event: event})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, func()) {
	ch := make(chan []byte)
	close(ch)
	return ch, func() {}
}
