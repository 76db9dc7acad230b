/*
Package resilience provides the circuit breaker used by the remote runner
client.

A Breaker opens after ReadyToTrip accepts the failure counts, rejects calls
with ErrCircuitOpen until Timeout passes, then admits MaxRequests probes
while half-open. IsSuccessful lets callers keep input errors, such as a
rejected run request, from counting against the remote.

	breaker := resilience.New("runner", resilience.Settings{
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, client.ErrRejected)
		},
	})

	resp, err := resilience.Call(ctx, breaker, func(ctx context.Context) (*Result, error) {
		return c.run(ctx, req)
	})

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                             |
	                                          [failure] -> Open
*/
package resilience
