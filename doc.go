// Package main provides the entry point for the guardpost identity service.
// It initializes and runs a web server using the Fiber framework that exposes
// a REST API for authentication, user, role and permission management, media
// upload and health checks. The application uses gorm for data persistence
// and enforces role-based access control on every protected route.
package main
