package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	customer      = &domain.User{ID: "c1", Role: domain.RoleCustomer}
	otherCustomer = &domain.User{ID: "c2", Role: domain.RoleCustomer}
	admin         = &domain.User{ID: "a1", Role: domain.RoleAdmin}
)

func TestCanAccessTicket(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", UserID: customer.ID}

	tests := []struct {
		name string
		user *domain.User
		want bool
	}{
		{"owner", customer, true},
		{"other customer", otherCustomer, false},
		{"admin", admin, true},
		{"nil user", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessTicket(tt.user, ticket))
		})
	}

	assert.False(t, CanAccessTicket(customer, nil))
}

func TestCanSetStatusOrAssignee(t *testing.T) {
	assert.True(t, CanSetStatusOrAssignee(admin))
	assert.False(t, CanSetStatusOrAssignee(customer))
}

func TestCanManageCategories(t *testing.T) {
	assert.True(t, CanManageCategories(admin))
	assert.False(t, CanManageCategories(customer))
}

func TestCommentPolicies(t *testing.T) {
	comment := &domain.Comment{ID: "cm1", UserID: customer.ID}

	t.Run("edit is author only", func(t *testing.T) {
		assert.True(t, CanEditComment(customer, comment))
		assert.False(t, CanEditComment(otherCustomer, comment))
		assert.False(t, CanEditComment(admin, comment))
	})

	t.Run("delete is author or admin", func(t *testing.T) {
		assert.True(t, CanDeleteComment(customer, comment))
		assert.True(t, CanDeleteComment(admin, comment))
		assert.False(t, CanDeleteComment(otherCustomer, comment))
	})
}

func TestChannelPolicies(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", UserID: customer.ID}

	assert.True(t, CanSubscribeTicketChannel(customer, ticket))
	assert.False(t, CanSubscribeTicketChannel(otherCustomer, ticket))
	assert.True(t, CanSubscribeTicketChannel(admin, ticket))

	assert.True(t, CanSubscribeUserChannel(customer, customer.ID))
	assert.False(t, CanSubscribeUserChannel(customer, otherCustomer.ID))
	assert.False(t, CanSubscribeUserChannel(nil, "c1"))
}
