// Package profile encrypts and decrypts exported settings with a password.
//
// Keys come from PBKDF2-HMAC-SHA256 (100 000 iterations, 32 bytes). Records are sealed with
// AES-256-GCM under a fresh 12-byte nonce. The exported file is a JSON [Envelope] whose byte
// fields are plain number arrays:
//
//	{
//	  "version": 1,
//	  "iv": [12 numbers],
//	  "data": [ciphertext and tag]
//	}
//
// Version 1 (and files with no version) use the fixed legacy salt, so any user with the same
// password derives the same key. Version 2 adds a random per-export "salt" array and should be
// preferred when the file does not need to open in older clients.
package profile
