package benchmark

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/core/service"
	"github.com/yndnr/records-go/internal/storage/memory"
)

// RecordCounts defines the store sizes for benchmarking.
var RecordCounts = []int{1000, 10000, 50000}

// benchCollection is the collection every benchmark fills.
const benchCollection = "gym"

// recordFields returns the attributes of the i-th benchmark record.
func recordFields(i int) []domain.Field {
	return []domain.Field{
		domain.F("name", fmt.Sprintf("member-%d", i)),
		domain.F("time", int64(i%90)),
		domain.F("score", float64(i)/7),
		domain.F("tags", []any{"a", "b"}),
	}
}

// prefillStore creates count records in store.
func prefillStore(b *testing.B, store *memory.Store, count int) {
	b.Helper()
	for i := 0; i < count; i++ {
		if _, err := store.Create(benchCollection, recordFields(i)); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}

// journal feeds store events to a tracker and ignores rejections.
type journal struct {
	*service.Tracker
}

func (journal) Reject(string, string, error) {}
