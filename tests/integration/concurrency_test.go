package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront-checkout/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, app *testApp, owner string) string {
	t.Helper()
	now := time.Now()
	orderNum := domain.GenerateOrderNum(owner, now)
	require.NoError(t, app.orders.Create(context.Background(), &domain.Order{
		OrderNum:  orderNum,
		Status:    domain.OrderStatusInProgress,
		Amount:    decimal.RequireFromString("24.59"),
		Currency:  "EUR",
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return orderNum
}

// TestConcurrentWebhooks fires many signed deliveries in parallel, each
// event delivered twice. Every order must end up PAID with exactly one
// confirmation.
func TestConcurrentWebhooks(t *testing.T) {
	app := newTestApp(t)

	const orders = 50
	nums := make([]string, orders)
	for i := range nums {
		nums[i] = seedOrder(t, app, fmt.Sprintf("sess-concurrent-%03d", i))
	}

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i, num := range nums {
		body := paymentEvent(fmt.Sprintf("evt_c_%03d", i), domain.EventPaymentIntentSucceeded, num, "")
		for d := 0; d < 2; d++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if app.sendWebhook(t, body, true) == http.StatusOK {
					accepted.Add(1)
				}
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, int32(orders*2), accepted.Load())
	for _, num := range nums {
		app.waitForStatus(t, num, domain.OrderStatusPaid)
	}
	require.Eventually(t, func() bool { return app.queue.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	sent := app.notifier.confirmations()
	assert.Len(t, sent, orders)
	seen := make(map[string]int)
	for _, c := range sent {
		seen[c.OrderNum]++
	}
	for _, num := range nums {
		assert.Equal(t, 1, seen[num], "confirmations for %s", num)
	}
}

// TestWebhookOrderPreserved checks that events for one order are applied
// in arrival order.
func TestWebhookOrderPreserved(t *testing.T) {
	app := newTestApp(t)
	num := seedOrder(t, app, "sess-ordering-001")

	steps := []string{
		domain.EventPaymentIntentProcessing,
		domain.EventPaymentIntentFailed,
		domain.EventPaymentIntentProcessing,
		domain.EventPaymentIntentSucceeded,
	}
	for i, typ := range steps {
		require.Equal(t, http.StatusOK, app.sendWebhook(t, paymentEvent(fmt.Sprintf("evt_o_%d", i), typ, num, ""), true))
	}

	app.waitForStatus(t, num, domain.OrderStatusPaid)
	require.Eventually(t, func() bool { return len(app.notifier.confirmations()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

// TestWebhookBackpressure fills a small queue while the consumer is stuck
// and expects 503 once it is full. Accepted events are applied after the
// consumer is released.
func TestWebhookBackpressure(t *testing.T) {
	app := newTestApp(t, withQueueCapacity(2))
	app.orders.hold()

	nums := make([]string, 6)
	for i := range nums {
		nums[i] = seedOrder(t, app, fmt.Sprintf("sess-backpressure-%d", i))
	}

	var acceptedNums []string
	rejected := 0
	for i, num := range nums {
		code := app.sendWebhook(t, paymentEvent(fmt.Sprintf("evt_b_%d", i), domain.EventPaymentIntentSucceeded, num, ""), true)
		switch code {
		case http.StatusOK:
			acceptedNums = append(acceptedNums, num)
		case http.StatusServiceUnavailable:
			rejected++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	// One event in the stuck handler plus two queued.
	assert.LessOrEqual(t, len(acceptedNums), 3)
	assert.GreaterOrEqual(t, rejected, 3)

	app.orders.release()
	for _, num := range acceptedNums {
		app.waitForStatus(t, num, domain.OrderStatusPaid)
	}
}

// TestShutdownDrainsQueue stops the consumer while events are queued.
// Queued events are still applied and later deliveries are refused.
func TestShutdownDrainsQueue(t *testing.T) {
	app := newTestApp(t)
	app.orders.hold()

	nums := make([]string, 5)
	for i := range nums {
		nums[i] = seedOrder(t, app, fmt.Sprintf("sess-drain-%d", i))
		require.Equal(t, http.StatusOK,
			app.sendWebhook(t, paymentEvent(fmt.Sprintf("evt_d_%d", i), domain.EventPaymentIntentSucceeded, nums[i], ""), true))
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- app.consumer.Shutdown(ctx)
	}()

	require.Eventually(t, func() bool {
		return app.sendWebhook(t, paymentEvent("evt_late", domain.EventPaymentIntentSucceeded, nums[0], ""), true) == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)

	app.orders.release()
	require.NoError(t, <-done)
	for _, num := range nums {
		assert.Equal(t, domain.OrderStatusPaid, app.orders.status(num))
	}
}

// TestConcurrentSessions builds many baskets in parallel; sessions never
// see each other's items.
func TestConcurrentSessions(t *testing.T) {
	app := newTestApp(t)

	const sessions = 20
	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := fmt.Sprintf("sess-parallel-%03d", i)
			r := app.call(t, http.MethodPost, "/api/v1/basket/items", session, map[string]interface{}{
				"amount": fmt.Sprintf("%d.00", i+1), "description": "Item", "sku": fmt.Sprintf("SKU-%d", i),
			})
			if r.Status != http.StatusCreated {
				errs <- fmt.Errorf("session %s: status %d", session, r.Status)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for i := 0; i < sessions; i++ {
		r := app.call(t, http.MethodGet, "/api/v1/basket", fmt.Sprintf("sess-parallel-%03d", i), nil)
		var b basketView
		r.decode(t, &b)
		assert.Equal(t, 1, b.NumItems)
		assert.Equal(t, fmt.Sprintf("%d.00", i+1), b.Total)
	}
}
