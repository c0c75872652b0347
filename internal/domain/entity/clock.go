package entity

import "time"

// now is swapped in tests that need deterministic timestamps
var now = time.Now
