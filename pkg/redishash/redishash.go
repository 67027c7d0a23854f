// Package redishash maps flat structs onto redis hashes using `redis` field
// tags, the same tags go-redis uses when scanning HGETALL results.
package redishash

import (
	"context"
	"reflect"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Fields returns the hash fields of a struct (or pointer to struct). Nil
// pointer fields are omitted and non-nil ones are dereferenced. Untagged
// fields use the Go field name; fields tagged "-" are skipped.
func Fields(value any) map[string]any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	fields := make(map[string]any, v.NumField())
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("redis")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = sf.Name
		}

		field := v.Field(i)
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}

		fields[tag] = field.Interface()
	}

	return fields
}

// HSetStruct writes the struct's fields to the hash at key. On a pipeline the
// returned command resolves once the pipeline is executed.
func HSetStruct(ctx context.Context, c redis.Cmdable, key string, value any) *redis.IntCmd {
	return c.HSet(ctx, key, Fields(value))
}

// ExecPipe runs the pipeline and returns the first failed command's error.
func ExecPipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func FieldToInt64(field string) int64 {
	i, _ := strconv.ParseInt(field, 10, 64)
	return i
}

// FieldToStringPtr returns nil for an absent or empty field.
func FieldToStringPtr(fields map[string]string, key string) *string {
	value, ok := fields[key]
	if !ok || value == "" {
		return nil
	}

	return &value
}
