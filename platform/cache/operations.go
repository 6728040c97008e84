package cache

import (
	"github.com/gomodule/redigo/redis"
)

func Get(key string, conn *redis.Conn) (string, error) {
	return redis.String((*conn).Do("GET", key))
}

func Set(key string, value interface{}, conn *redis.Conn) error {
	_, err := (*conn).Do("SET", key, value)
	return err
}

func Del(key string, conn *redis.Conn) error {
	_, err := (*conn).Do("DEL", key)
	return err
}

func HSET(key string, field string, value interface{}, conn *redis.Conn) error {
	_, err := (*conn).Do("HSET", key, field, value)
	return err
}

func HGET(key string, field string, conn *redis.Conn) (string, error) {
	return redis.String((*conn).Do("HGET", key, field))
}

func RPUSH(key string, values []interface{}, conn *redis.Conn) error {
	_, err := (*conn).Do("RPUSH", redis.Args{}.Add(key).AddFlat(values)...)
	return err
}

func LLEN(key string, conn *redis.Conn) (int, error) {
	return redis.Int((*conn).Do("LLEN", key))
}

func LGET(key string, conn *redis.Conn) ([]interface{}, error) {
	length, err := LLEN(key, conn)
	if err != nil {
		return nil, err
	}
	return redis.Values((*conn).Do("LRANGE", key, 0, length))
}
