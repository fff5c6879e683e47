package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsignment_AcceptingBids(t *testing.T) {
	c := Consignment{Status: ConsignmentStatusOpen}
	assert.True(t, c.AcceptingBids())
	assert.False(t, c.IsAwarded())

	for _, status := range []ConsignmentStatus{ConsignmentStatusAwarded, ConsignmentStatusInProgress, ConsignmentStatusCompleted} {
		c.Status = status
		assert.False(t, c.AcceptingBids(), status)
		assert.True(t, c.IsAwarded(), status)
	}
}

func TestConsignment_OwnedBy(t *testing.T) {
	c := Consignment{CompanyID: "company-1"}
	assert.True(t, c.OwnedBy("company-1"))
	assert.False(t, c.OwnedBy("company-2"))
}

func TestBid_IsTerminal(t *testing.T) {
	assert.False(t, Bid{Status: BidStatusPending}.IsTerminal())
	assert.True(t, Bid{Status: BidStatusAwarded}.IsTerminal())
	assert.True(t, Bid{Status: BidStatusRejected}.IsTerminal())
}

func TestCaller_DisplayCompany(t *testing.T) {
	assert.Equal(t, "Acme Logistics", Caller{Name: "Ravi", CompanyName: "Acme Logistics"}.DisplayCompany())
	assert.Equal(t, "Ravi", Caller{Name: "Ravi"}.DisplayCompany())
	assert.True(t, Caller{Role: RoleMSME}.IsMSME())
	assert.True(t, Caller{Role: RoleCompany}.IsCompany())
	assert.False(t, Role("admin").Valid())
}
