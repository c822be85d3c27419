package constants

const USER_AGENT = "videofeed/0.1.0 (+https://github.com/Amund211/videofeed)"

// CREDENTIAL_NAME is the key the listing credential is stored under
const CREDENTIAL_NAME = "token"
