package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusOrdinals(t *testing.T) {
	assert.Equal(t, 0, int(OrderStatusNew))
	assert.Equal(t, 1, int(OrderStatusAccepted))
	assert.Equal(t, 2, int(OrderStatusDelivery))
	assert.Equal(t, 3, int(OrderStatusFinished))
	assert.Equal(t, 4, int(OrderStatusCancelled))
}

func TestOrderStatusNext(t *testing.T) {
	tests := []struct {
		from OrderStatus
		want OrderStatus
		ok   bool
	}{
		{OrderStatusNew, OrderStatusAccepted, true},
		{OrderStatusAccepted, OrderStatusDelivery, true},
		{OrderStatusDelivery, OrderStatusFinished, true},
		{OrderStatusFinished, OrderStatusFinished, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			got, ok := tt.from.Next()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderStatusJSONIsInteger(t *testing.T) {
	data, err := json.Marshal(StatusEntry{Status: OrderStatusDelivery, Timestamp: time.Unix(0, 0).UTC()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":2,"timestamp":"1970-01-01T00:00:00Z"}`, string(data))
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("1")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, s)

	s, err = ParseOrderStatus("Cancelled")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, s)

	_, err = ParseOrderStatus("7")
	assert.Error(t, err)

	_, err = ParseOrderStatus("cooking")
	assert.Error(t, err)
}

func TestClockTimeScan(t *testing.T) {
	var c ClockTime
	require.NoError(t, c.Scan("09:30:00"))
	assert.Equal(t, NewClockTime(9, 30), c)

	require.NoError(t, c.Scan([]byte("22:15:00.000000")))
	assert.Equal(t, NewClockTime(22, 15), c)

	assert.Error(t, c.Scan(42))

	v, err := NewClockTime(7, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "07:05:00", v)
}

func TestClockTimeJSON(t *testing.T) {
	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"18:45"`), &c))
	assert.Equal(t, NewClockTime(18, 45), c)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"18:45"`, string(data))
}

func TestRestaurantIsOpenAt(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC) }

	r := Restaurant{OpeningTime: NewClockTime(10, 0), ClosingTime: NewClockTime(22, 0)}
	assert.False(t, r.IsOpenAt(day(9, 59)))
	assert.True(t, r.IsOpenAt(day(10, 0)))
	assert.True(t, r.IsOpenAt(day(21, 59)))
	assert.False(t, r.IsOpenAt(day(22, 0)))

	night := Restaurant{OpeningTime: NewClockTime(18, 0), ClosingTime: NewClockTime(2, 0)}
	assert.True(t, night.IsOpenAt(day(23, 30)))
	assert.True(t, night.IsOpenAt(day(1, 59)))
	assert.False(t, night.IsOpenAt(day(2, 0)))
	assert.False(t, night.IsOpenAt(day(12, 0)))

	empty := Restaurant{OpeningTime: NewClockTime(9, 0), ClosingTime: NewClockTime(9, 0)}
	assert.False(t, empty.IsOpenAt(day(8, 59)))
	assert.False(t, empty.IsOpenAt(day(9, 0)))
	assert.False(t, empty.IsOpenAt(day(12, 0)))
}

func TestAppendStatusKeepsHistory(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o := &Order{}
	o.AppendStatus(OrderStatusNew, at, "Order placed, awaiting confirmation")
	o.AppendStatus(OrderStatusAccepted, at.Add(time.Minute), "")

	require.Len(t, o.StatusHistory, 2)
	assert.Equal(t, OrderStatusAccepted, o.Status)
	assert.Equal(t, o.Status, o.StatusHistory[len(o.StatusHistory)-1].Status)
	assert.Equal(t, "Order placed, awaiting confirmation", o.StatusHistory[0].Notes)
}

func TestConfirmationTokenIsExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, (&ConfirmationToken{ExpiresAt: now.Add(-time.Hour)}).IsExpired(now))
	assert.False(t, (&ConfirmationToken{ExpiresAt: now.Add(time.Hour)}).IsExpired(now))
}
