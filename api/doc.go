// Package api is the HTTP layer between the telnyx commands and the Telnyx REST APIs.
//
// A Client resolves the API key for the selected profile, sends one request with
// bearer authentication and decodes the JSON response. Non-2xx responses become
// *APIError values carrying the upstream code, title, detail and, for well-known
// codes, a remediation hint:
//
//	client := api.New(config.NewStore(""))
//
//	var resp struct {
//		Data struct {
//			Balance string `json:"balance"`
//		} `json:"data"`
//	}
//	if err := client.V2().Get(ctx, "/balance", api.Options{}, &resp); err != nil {
//		if errors.Is(err, api.ErrUnauthorized) {
//			// bad key
//		}
//		return err
//	}
//
// The general and 10DLC APIs are reached through V2 and TenDLC. Object storage
// is S3 compatible; StorageCredentials returns the endpoint and the key pair it
// accepts.
//
// ValidateID, ValidatePhone and ValidateBucketName reject malformed input before
// any request is sent.
package api
