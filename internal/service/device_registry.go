package service

import (
	"fmt"

	"stockpos/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// DeviceRegistry verifies RFID reader credentials. Keys are stored as bcrypt
// hashes only; the plaintext key never leaves the device.
type DeviceRegistry struct {
	keys      map[string][]byte   // device id → own key hash
	shared    []byte              // optional fleet-wide key hash
	sharedIDs map[string]struct{} // devices allowed to present the shared key
}

// NewDeviceRegistry builds a registry from per-device hashes and an optional
// shared hash accepted for sharedIDs and for every device in keys.
func NewDeviceRegistry(keys map[string]string, sharedHash string, sharedIDs []string) *DeviceRegistry {
	r := &DeviceRegistry{
		keys:      make(map[string][]byte, len(keys)),
		sharedIDs: make(map[string]struct{}, len(sharedIDs)+len(keys)),
	}
	for id, h := range keys {
		r.keys[id] = []byte(h)
		r.sharedIDs[id] = struct{}{}
	}
	for _, id := range sharedIDs {
		r.sharedIDs[id] = struct{}{}
	}
	if sharedHash != "" {
		r.shared = []byte(sharedHash)
	}
	return r
}

// NewDeviceRegistryFromConfig reads DEVICE_KEYS, DEVICE_IDS and DEVICE_SHARED_KEY_HASH.
func NewDeviceRegistryFromConfig(cfg *config.Config) (*DeviceRegistry, error) {
	keys, err := cfg.DeviceKeyMap()
	if err != nil {
		return nil, err
	}
	return NewDeviceRegistry(keys, cfg.DeviceSharedKeyHash, cfg.DeviceIDList()), nil
}

// Verify returns ErrUnauthorized unless apiKey matches the device's own hash
// or the shared hash the device is allowed to use.
func (r *DeviceRegistry) Verify(deviceID, apiKey string) error {
	if deviceID == "" || apiKey == "" {
		return fmt.Errorf("missing device credentials: %w", ErrUnauthorized)
	}
	if h, ok := r.keys[deviceID]; ok {
		if bcrypt.CompareHashAndPassword(h, []byte(apiKey)) == nil {
			return nil
		}
	}
	if _, ok := r.sharedIDs[deviceID]; ok && r.shared != nil {
		if bcrypt.CompareHashAndPassword(r.shared, []byte(apiKey)) == nil {
			return nil
		}
	}
	return fmt.Errorf("device %q: %w", deviceID, ErrUnauthorized)
}

// Len reports how many devices are known.
func (r *DeviceRegistry) Len() int { return len(r.sharedIDs) }
