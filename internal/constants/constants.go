package constants

import "time"

// IdentityTagKey is the tag key that must be attached to each operator's IAM
// user. Its value must be unique among all openSeSSHIAMe deployments; the
// value is how ingress rules are traced back to the operator that created
// them.
const IdentityTagKey = "openSeSSHIAMe-ID"

// DescriptionPrefix is prepended to the identity tag value to form the
// description written into every managed ingress rule range.
const DescriptionPrefix = "openSeSSHIAMe"

// DefaultAddressEndpoint is the address-echo service queried for the
// operator's current public IPv4 address.
const DefaultAddressEndpoint = "https://api.ipify.org"

// DefaultPort is the port opened when neither the config file nor the
// --port flag specifies one.
const DefaultPort = 22

// RequestTimeout bounds the address-echo HTTP call.
const RequestTimeout = 10 * time.Second
