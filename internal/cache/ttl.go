// Package cache guarda respostas JSON já serializadas por um curto período,
// para as listagens que o front consulta com frequência (pacientes). A
// invalidação é explícita: toda escrita que afeta uma listagem apaga a chave.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// TTL é um cache em memória chave->bytes com expiração única para todas as
// entradas. Seguro para uso concorrente.
type TTL struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

func New(ttl time.Duration) *TTL {
	c := &TTL{ttl: ttl, entries: make(map[string]entry)}
	go c.sweep()
	return c
}

// sweep remove entradas vencidas em segundo plano; Get já ignora vencidas, a
// varredura só evita acumular lixo em chaves que nunca mais são lidas.
func (c *TTL) sweep() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	for range time.Tick(interval) {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		c.mu.Unlock()
	}
}

// Get devolve o valor da chave, ou nil se ausente ou vencida.
func (c *TTL) Get(key string) []byte {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil
	}
	return e.value
}

func (c *TTL) Set(key string, value []byte) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DeletePrefix apaga todas as chaves com o prefixo dado, ex.: "pacientes:".
func (c *TTL) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
