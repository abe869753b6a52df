package benchmark

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/flashkv/flashkv"
	"github.com/flashkv/flashkv/codec"
	"github.com/stretchr/testify/assert"
)

var db *flashkv.Store[string, string]

func init() {
	db = flashkv.New[string, string](codec.String{}, codec.String{})
	if err := db.Load(filepath.Join(os.TempDir(), "flashkv-bench.data")); err != nil {
		panic(err)
	}
}

// Benchmark_Insert .
func Benchmark_Insert(b *testing.B) {
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		err := db.Insert("key"+strconv.Itoa(i), "value"+strconv.Itoa(i))
		assert.Nil(b, err)
	}
}

// Benchmark_FindValue .
func Benchmark_FindValue(b *testing.B) {
	for i := 0; i < 10000; i++ {
		err := db.Upsert("key"+strconv.Itoa(i), "value"+strconv.Itoa(i))
		assert.Nil(b, err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := db.FindValue("key" + strconv.Itoa(i))
		if err != nil && !errors.Is(err, flashkv.ErrNotFound) {
			b.Fatal(err)
		}
	}
}

// Benchmark_Delete .
func Benchmark_Delete(b *testing.B) {
	for i := 0; i < b.N; i++ {
		err := db.Upsert("key"+strconv.Itoa(i), "value"+strconv.Itoa(i))
		assert.Nil(b, err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		err := db.Delete("key" + strconv.Itoa(i))
		assert.Nil(b, err)
	}
}
