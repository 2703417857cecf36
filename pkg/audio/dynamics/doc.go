// Package dynamics provides the dynamic range compressor used on the mix bus.
package dynamics
