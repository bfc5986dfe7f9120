package handler

// APIV1Prefix is the canonical base path for the public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and
// tests.
const APIV1Prefix = "/api/v1"

// ViewPermission gates every console API route; it mirrors the
// permission the auth service grants console operators.
const ViewPermission = "ci:view"
