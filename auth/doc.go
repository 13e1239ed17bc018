// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides study admin keys and random IDs.

# Admin Keys

Admin keys use HMAC-SHA256 over the study key to create deterministic,
verifiable keys:

	adminKey := auth.GenerateAdminKey(studyKey, salt)
	err := auth.ValidateAdminKey(studyKey, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same study key and salt always produce the same key, so nothing has to
be stored. Mutating survey requests send it in the X-Admin-Key header.

# ID Generation

Random hex IDs, used for request correlation:

	id, err := auth.GenerateID(8)  // 16 hex characters
*/
package auth
