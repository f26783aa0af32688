package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/bookit/internal/model"
)

func seqReferences(refs ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		r := refs[i%len(refs)]
		i++
		return r, nil
	}
}

func admissionRequest(qty int) AdmissionRequest {
	return AdmissionRequest{
		Slot:     testSlot,
		Quantity: qty,
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Subtotal: 999 * qty,
		Taxes:    59 * qty,
		Total:    1058 * qty,
	}
}

func TestAdmission_AdmitsWithinCapacity(t *testing.T) {
	bookings := newMemBookingStore()
	a := NewAdmission(bookings, zaptest.NewLogger(t))

	b, err := a.Admit(context.Background(), admissionRequest(4))
	require.NoError(t, err)
	assert.Len(t, b.ReferenceID, 8)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, testSlot, b.Slot())
	assert.Equal(t, 4, bookings.total(testSlot))
}

func TestAdmission_RejectsOverCapacity(t *testing.T) {
	bookings := newMemBookingStore()
	bookings.add(model.Booking{ReferenceID: "EXISTING", ExperienceID: testSlot.ExperienceID,
		BookingDate: testSlot.Date, BookingTime: testSlot.Time, Quantity: 9})
	a := NewAdmission(bookings, zaptest.NewLogger(t))

	_, err := a.Admit(context.Background(), admissionRequest(2))
	ce, ok := AsCapacityError(err)
	require.True(t, ok)
	assert.Equal(t, 1, ce.Available)
	assert.Equal(t, 0, bookings.creates)

	b, err := a.Admit(context.Background(), admissionRequest(1))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Quantity)
	assert.Equal(t, SlotCapacity, bookings.total(testSlot))
}

func TestAdmission_AvailableNeverNegative(t *testing.T) {
	bookings := newMemBookingStore()
	bookings.add(model.Booking{ReferenceID: "LEGACY01", ExperienceID: testSlot.ExperienceID,
		BookingDate: testSlot.Date, BookingTime: testSlot.Time, Quantity: 12})
	a := NewAdmission(bookings, zaptest.NewLogger(t))

	_, err := a.Admit(context.Background(), admissionRequest(1))
	ce, ok := AsCapacityError(err)
	require.True(t, ok)
	assert.Zero(t, ce.Available)
}

func TestAdmission_RedrawsTakenReference(t *testing.T) {
	bookings := newMemBookingStore()
	bookings.add(model.Booking{ReferenceID: "AAAAAAAA", ExperienceID: "exp-2",
		BookingDate: "2025-04-01", BookingTime: "9:00 am", Quantity: 1})
	a := NewAdmission(bookings, zaptest.NewLogger(t),
		WithReferenceSource(seqReferences("AAAAAAAA", "AAAAAAAA", "BBBBBBBB")))

	b, err := a.Admit(context.Background(), admissionRequest(1))
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", b.ReferenceID)
	assert.Equal(t, 1, bookings.creates)
}

func TestAdmission_RedrawsOnInsertDuplicate(t *testing.T) {
	bookings := newMemBookingStore()
	bookings.takenAtInsert["CCCCCCCC"] = true
	a := NewAdmission(bookings, zaptest.NewLogger(t),
		WithReferenceSource(seqReferences("CCCCCCCC", "DDDDDDDD")))

	b, err := a.Admit(context.Background(), admissionRequest(1))
	require.NoError(t, err)
	assert.Equal(t, "DDDDDDDD", b.ReferenceID)
	assert.Equal(t, 2, bookings.creates)
}

func TestAdmission_StoreFailure(t *testing.T) {
	bookings := newMemBookingStore()
	bookings.bookedErr = errStoreDown
	a := NewAdmission(bookings, zaptest.NewLogger(t))

	_, err := a.Admit(context.Background(), admissionRequest(1))
	assert.ErrorIs(t, err, errStoreDown)
	_, isCapacity := AsCapacityError(err)
	assert.False(t, isCapacity)
}

func TestAdmission_WithCapacity(t *testing.T) {
	a := NewAdmission(newMemBookingStore(), zaptest.NewLogger(t), WithCapacity(3))
	assert.Equal(t, 3, a.Capacity())

	_, err := a.Admit(context.Background(), admissionRequest(4))
	ce, ok := AsCapacityError(err)
	require.True(t, ok)
	assert.Equal(t, 3, ce.Available)
}
