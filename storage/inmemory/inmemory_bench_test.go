package inmemory

import (
	"testing"
)

func BenchmarkGaugeStorageAppend(b *testing.B) {
	st := NewGaugeStorage()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.Append(int64(i % 1000))
	}
}

func BenchmarkGaugeStorageAppendParallel(b *testing.B) {
	st := NewGaugeStorage()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			st.Append(42)
		}
	})
}

func BenchmarkShardedGaugeStorageAppendParallel(b *testing.B) {
	st := NewShardedGaugeStorage(0)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			st.Append(42)
		}
	})
}

func BenchmarkGaugeStorageSnapshot(b *testing.B) {
	st := NewGaugeStorage()
	for i := 0; i < 100; i++ {
		st.Append(int64(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.Snapshot()
	}
}
