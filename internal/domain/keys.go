package domain

// KeyPrefix namespaces every key written to the document store.
const KeyPrefix = "scentdex:"
