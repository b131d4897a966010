// Package main GradLink VCS Integration Service API
//
//	@title						GradLink VCS Integration Service
//	@version					1.0
//	@description				Mediates between the GradLink mobile client and the external version-control platform: OAuth credential lifecycle, team repository provisioning, pull-request orchestration, and contributor activity reconciliation.
//
//	@contact.name				GradLink Support
//	@contact.email				support@gradlink.app
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Credential
//	@tag.description			OAuth code exchange and credential refresh
//
//	@tag.name					Provision
//	@tag.description			Team repository provisioning and supervisor linking
//
//	@tag.name					PullRequest
//	@tag.description			Pull-request validation and creation
//
//	@tag.name					Activity
//	@tag.description			Contributor activity reconciliation
package main
