package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

func TestValidateStatusUpdate(t *testing.T) {
	ok := StatusUpdateRequest{User: "a@x.in", RequestID: "7", Timestamp: "1700000000000", Status: "approved"}
	assert.NoError(t, Validate(ok))
	assert.Equal(t, "requests/a@x.in/7/history/1700000000000/status", ok.Locator().StatusPath())

	bad := StatusUpdateRequest{User: "a/b", RequestID: "7", Status: "lost"}
	err := Validate(bad)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "user")
	assert.Contains(t, de.Details, "timestamp")
	assert.Equal(t, "must be one of: raised approved rejected delivered returned", de.Details["status"])
}

func TestNewUserSummaryPlaceholders(t *testing.T) {
	assert.Nil(t, NewUserSummary(nil))
}
