package pipeline

import (
	"radar/internal/staging"
	"radar/internal/staging/memory"
)

const (
	alfa  = "11.222.333/0001-81"
	beta  = "11444777000161"
	ghost = "98765432000198"
	rawID = "52998224725"
)

func stagedSource() *memory.Source {
	return memory.New().
		Stage(staging.TableCompanies, []staging.CompanyRecord{
			{CNPJ: alfa, LegalName: "ALFA LTDA", Capital: "800,00", Address: "Rua A, 10"},
			{CNPJ: beta, LegalName: "BETA SA", Capital: "50000", OpenedAt: "2010-01-01", Address: "Rua B, 20"},
			{CNPJ: "11222333000182", LegalName: "BAD DIGITS"},
			{CNPJ: "11222333000181", LegalName: "ALFA AGAIN"},
			{CNPJ: "12345678000195", LegalName: "  "},
			{CNPJ: "12345678000276", LegalName: "GAMA", OpenedAt: "31-31-2020"},
		}).
		Stage(staging.TablePartners, []staging.PartnerRecord{
			{Company: "11222333", Identifier: "***982247**", Name: "Maria Silva", Role: "Socio-Administrador"},
			{Company: beta, Identifier: "***111222**", Name: "Joao Souza", Role: "Socio"},
			{Company: "123", Identifier: "***111222**", Name: "Nobody"},
		}).
		Stage(staging.TableContracts, []staging.ContractRecord{
			{ID: "C1", CompanyIdentifier: alfa, AgencyCode: "26000", Value: "100000", SignedAt: "2022-05-01"},
			{ID: "C2", CompanyIdentifier: "11222333000181", AgencyCode: "36000", Value: "50.000,00", SignedAt: "01/06/2022"},
			{ID: "C3", CompanyIdentifier: beta, AgencyCode: "26000", Value: "1000", SignedAt: "20230115"},
			{ID: "C4", CompanyIdentifier: ghost, AgencyCode: "26000", Value: "10", SignedAt: "2023-01-01"},
			{ID: "C5", CompanyIdentifier: beta, AgencyCode: "26000", Value: "-5", SignedAt: "2023-01-01"},
			{ID: "C1", CompanyIdentifier: beta, AgencyCode: "26000", Value: "1", SignedAt: "2023-01-01"},
		}).
		Stage(staging.TableSanctions, []staging.SanctionRecord{
			{ID: "S1", TargetIdentifier: "***.333.444-**", TargetName: "Pedro", Type: "Inidoneidade", StartDate: "2020-01-01"},
			{ID: "S2", TargetIdentifier: beta, Type: "Suspensao", StartDate: "2020-01-01", EndDate: "2019-01-01"},
		}).
		Stage(staging.TableDonations, []staging.DonationRecord{
			{ID: "D1", DonorIdentifier: rawID, DonorName: "Ana", Recipient: "Candidato", Value: "500", ElectionYear: "2022"},
			{ID: "D2", DonorIdentifier: beta, Recipient: "Candidato", Value: "500", ElectionYear: "abc"},
		}).
		Stage(staging.TableServants, []staging.ServantRecord{
			{Name: "MARIA SILVA", MaskedIdentifier: "***.982.247-**", Organization: "MINISTERIO DA SAUDE"},
			{Name: "", MaskedIdentifier: "***000111**"},
		})
}
