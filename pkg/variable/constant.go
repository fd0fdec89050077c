package variable

const (
	ClientIP      = "$client_ip"
	Host          = "$host"
	RequestMethod = "$request_method"
	RequestPath   = "$request_path"
	RequestID     = "$request_id"
	UserAgent     = "$user_agent"
	TraceID       = "$trace_id"
	Status        = "$status"
	// LookupResult is "ok" or the error kind of a gateway lookup.
	LookupResult = "$lookup_result"
	// Allow marks a request that skips rate limiting.
	Allow = "$allow"

	headerPrefix = "$header_"
	varPrefix    = "$var."
)
