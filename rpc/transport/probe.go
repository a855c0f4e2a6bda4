package transport

import (
	"time"
)

// ProbeEndpoint checks whether the endpoint hosts a live, protocol-speaking
// peer. It dials, sends the given ping payload and verifies the response
// with isPong, retrying up to retries times with a short pause in between.
func ProbeEndpoint(endpoint string, retries int, timeout time.Duration, ping []byte, isPong func([]byte) bool) bool {
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		conn, err := Dial(endpoint, timeout)
		if err != nil {
			continue
		}

		resp, err := conn.Send(ping)
		_ = conn.Close()
		if err != nil {
			continue
		}
		if isPong(resp) {
			return true
		}
	}
	return false
}
