package common

// AccessTokenHeaderName is the gRPC metadata key carrying the admin access
// token on calls to the ops listener.
const AccessTokenHeaderName = "access_token"

// BytesPerMB is the unit used for the upload size limit and its message.
const BytesPerMB = 1000 * 1000
