package application

import "expvar"

// appMetrics is published at /api/debug/vars under "shop".
// Keys: cart_<op> per applied cart transition, version_conflicts per retried write.
var appMetrics = expvar.NewMap("shop")
